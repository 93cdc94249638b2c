// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// GenAI implements Generator with Google's Gemini API.
type GenAI struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	log    *zap.Logger
}

// NewGenAI creates a Gemini client for the given configuration.
func NewGenAI(ctx context.Context, cfg types.LLMConfig, logger *zap.Logger) (*GenAI, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}

	gc := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(cfg.Temperature))
	}
	if cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &GenAI{client: client, model: cfg.Model, config: gc, log: logger}, nil
}

func (g *GenAI) request(p Prompt) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := []*genai.Content{genai.NewContentFromText(p.User, genai.RoleUser)}
	cfg := *g.config
	if p.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}
	return contents, &cfg
}

// Complete sends one GenerateContent request.
func (g *GenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	contents, cfg := g.request(p)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", upstream("genai", err)
	}
	return resp.Text(), nil
}

// Stream adapts the GenerateContentStream push iterator into a pull-based
// Stream. Closing the stream stops the iterator and cancels its request.
func (g *GenAI) Stream(ctx context.Context, p Prompt) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	contents, cfg := g.request(p)
	next, stop := iter.Pull2(g.client.Models.GenerateContentStream(ctx, g.model, contents, cfg))
	g.log.Debug("stream opened", zap.String("model", g.model))
	return &genaiStream{next: next, stop: stop, cancel: cancel}, nil
}

type genaiStream struct {
	next   func() (*genai.GenerateContentResponse, error, bool)
	stop   func()
	cancel context.CancelFunc
	text   string
	err    error
}

func (st *genaiStream) Next() bool {
	st.text = ""
	if st.err != nil {
		return false
	}
	for {
		resp, err, ok := st.next()
		if !ok {
			return false
		}
		if err != nil {
			st.err = upstream("genai", err)
			return false
		}
		if t := resp.Text(); t != "" {
			st.text = t
			return true
		}
	}
}

func (st *genaiStream) Text() string { return st.text }

func (st *genaiStream) Err() error { return st.err }

func (st *genaiStream) Close() error {
	st.stop()
	st.cancel()
	return nil
}
