// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChunkKind tags an element of a streamed generation.
type ChunkKind int

const (
	// ChunkText carries the next increment of generated text.
	ChunkText ChunkKind = iota

	// ChunkError terminates the stream with a failure. Err is set.
	ChunkError

	// ChunkEnd terminates a stream that completed normally.
	ChunkEnd
)

// String returns the kind name used in logs.
func (k ChunkKind) String() string {
	switch k {
	case ChunkText:
		return "text"
	case ChunkError:
		return "error"
	case ChunkEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Chunk is one element of a streamed generation. Callers branch on Kind
// instead of inspecting Text for error markers.
type Chunk struct {
	Kind ChunkKind
	Text string
	Err  error
}

// TextChunk returns a ChunkText element.
func TextChunk(s string) Chunk { return Chunk{Kind: ChunkText, Text: s} }

// ErrorChunk returns a terminal ChunkError element.
func ErrorChunk(err error) Chunk { return Chunk{Kind: ChunkError, Err: err} }

// EndChunk returns the terminal ChunkEnd element.
func EndChunk() Chunk { return Chunk{Kind: ChunkEnd} }
