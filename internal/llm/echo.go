// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"strings"
)

// Echo is an offline Generator that returns the user prompt. Stream yields
// the prompt one word at a time. It backs local demos and tooling runs that
// must not call a paid API.
type Echo struct{}

// Complete returns the user prompt unchanged.
func (Echo) Complete(_ context.Context, p Prompt) (string, error) {
	return p.User, nil
}

// Stream yields the user prompt split after each run of whitespace, so the
// concatenated chunks equal the prompt exactly.
func (Echo) Stream(ctx context.Context, p Prompt) (Stream, error) {
	return &echoStream{ctx: ctx, parts: splitKeepSpace(p.User), pos: -1}, nil
}

type echoStream struct {
	ctx   context.Context
	parts []string
	pos   int
	err   error
}

func (s *echoStream) Next() bool {
	if s.err != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = upstream("echo", err)
		return false
	}
	s.pos++
	return s.pos < len(s.parts)
}

func (s *echoStream) Text() string {
	if s.pos < 0 || s.pos >= len(s.parts) {
		return ""
	}
	return s.parts[s.pos]
}

func (s *echoStream) Err() error   { return s.err }
func (s *echoStream) Close() error { return nil }

// splitKeepSpace splits s into words, each keeping its trailing whitespace.
func splitKeepSpace(s string) []string {
	var parts []string
	start := 0
	inSpace := false
	for i, r := range s {
		isSpace := strings.ContainsRune(" \t\n\r", r)
		if inSpace && !isSpace {
			parts = append(parts, s[start:i])
			start = i
		}
		inSpace = isSpace
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}
