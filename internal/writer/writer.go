// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package writer drafts articles from research and product context and
// delivers the draft as a pull-based sequence of chunks.
package writer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/internal/llm"
	"github.com/pdiddy/creative-writer/internal/prompt"
	"github.com/pdiddy/creative-writer/pkg/types"
)

// ErrConsumed is carried by the ChunkError a sequence yields when it is
// ranged a second time.
var ErrConsumed = errors.New("writer stream already consumed")

// Request holds the inputs for one draft.
type Request struct {
	ResearchContext string
	Research        any
	ProductContext  string
	Products        types.ProductSet
	Assignment      string

	// Feedback from a previous round. Empty means types.NoFeedback.
	Feedback types.Feedback
}

// Writer streams drafts from a generator.
type Writer struct {
	gen     llm.Generator
	prompts *prompt.Set
	log     *zap.Logger
}

// New creates a Writer.
func New(gen llm.Generator, prompts *prompt.Set, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{gen: gen, prompts: prompts, log: logger}
}

// Write renders the writer prompt, opens the upstream stream, and waits for
// its first event. Any failure up to that point is types.ErrGenerationSetup
// and no sequence is returned.
//
// The sequence yields text chunks in arrival order and ends with exactly one
// ChunkEnd, or one ChunkError wrapping types.ErrUpstreamUnavailable if the
// stream fails part way. It is single-pass. Breaking out of the range closes
// the upstream stream. A sequence that is never ranged should be passed to
// Discard; otherwise its stream is only released once the sequence is
// garbage collected.
func (w *Writer) Write(ctx context.Context, req Request) (iter.Seq[types.Chunk], error) {
	if req.Feedback == "" {
		req.Feedback = types.NoFeedback
	}

	p, err := w.prompts.Render(prompt.Writer, prompt.WriterVars{
		ResearchContext: req.ResearchContext,
		Research:        req.Research,
		ProductContext:  req.ProductContext,
		Products:        req.Products,
		Assignment:      req.Assignment,
		Feedback:        req.Feedback,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrGenerationSetup, err)
	}

	sctx, cancel := context.WithCancel(ctx)
	stream, err := w.gen.Stream(sctx, p)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: opening stream: %v", types.ErrGenerationSetup, err)
	}

	// Request errors only surface once the first event is read.
	more := stream.Next()
	if !more {
		if err := stream.Err(); err != nil {
			stream.Close()
			cancel()
			return nil, fmt.Errorf("%w: %w", types.ErrGenerationSetup, err)
		}
	}

	w.log.Debug("writer stream opened",
		zap.Int("products", len(req.Products)),
		zap.Bool("feedback", !req.Feedback.IsNone()))

	rel := &release{stream: stream, cancel: cancel}
	d := &draft{rel: rel}
	runtime.AddCleanup(d, (*release).close, rel)

	return func(yield func(types.Chunk) bool) {
		if !d.used.CompareAndSwap(false, true) {
			yield(types.ErrorChunk(ErrConsumed))
			return
		}
		defer d.rel.close()

		start := time.Now()
		chunks := 0
		for more {
			chunks++
			if !yield(types.TextChunk(stream.Text())) {
				w.log.Debug("writer stream abandoned", zap.Int("chunks", chunks))
				return
			}
			more = stream.Next()
		}

		if err := stream.Err(); err != nil {
			if !errors.Is(err, types.ErrUpstreamUnavailable) {
				err = fmt.Errorf("%w: %w", types.ErrUpstreamUnavailable, err)
			}
			w.log.Warn("writer stream failed", zap.Int("chunks", chunks), zap.Error(err))
			yield(types.ErrorChunk(fmt.Errorf("writer stream: %w", err)))
			return
		}

		w.log.Debug("writer stream complete",
			zap.Int("chunks", chunks),
			zap.Duration("elapsed", time.Since(start)))
		yield(types.EndChunk())
	}, nil
}

type draft struct {
	used atomic.Bool
	rel  *release
}

// release closes the upstream stream once, from the sequence or from the
// cleanup registered on its draft.
type release struct {
	once   sync.Once
	stream llm.Stream
	cancel context.CancelFunc
}

func (r *release) close() {
	r.once.Do(func() {
		r.stream.Close()
		r.cancel()
	})
}

// Discard releases a sequence returned by Write without reading its text.
func Discard(seq iter.Seq[types.Chunk]) {
	for range seq {
		return
	}
}

// Collect drains seq and returns the concatenated text. If the sequence
// yields a ChunkError, Collect returns the text received so far with that
// error.
func Collect(seq iter.Seq[types.Chunk]) (types.Article, error) {
	return CollectFunc(seq, nil)
}

// CollectFunc is Collect with a callback invoked for each text chunk as it
// arrives.
func CollectFunc(seq iter.Seq[types.Chunk], onChunk func(string)) (types.Article, error) {
	var b strings.Builder
	for c := range seq {
		switch c.Kind {
		case types.ChunkText:
			b.WriteString(c.Text)
			if onChunk != nil {
				onChunk(c.Text)
			}
		case types.ChunkError:
			return types.Article(b.String()), c.Err
		case types.ChunkEnd:
			return types.Article(b.String()), nil
		}
	}
	return types.Article(b.String()), nil
}
