// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/pkg/types"
)

func testGenAI(t *testing.T, ts *httptest.Server) *GenAI {
	t.Helper()
	g, err := NewGenAI(context.Background(), types.LLMConfig{
		Provider: types.ProviderGenAI,
		Model:    "gemini-test",
		APIKey:   "test-key",
		Endpoint: ts.URL,
	}, zap.NewNop())
	require.NoError(t, err)
	return g
}

func geminiChunk(text string) string {
	return fmt.Sprintf(`data: {"candidates":[{"content":{"role":"model","parts":[{"text":%q}]},"index":0}]}`+"\n\n", text)
}

func TestGenAIStreamDeliversChunksInOrder(t *testing.T) {
	var gotPath, gotKey string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range []string{"Pack ", "light, ", "", "camp warm."} {
			fmt.Fprint(w, geminiChunk(c))
		}
	}))
	defer ts.Close()

	s, err := testGenAI(t, ts).Stream(context.Background(), Prompt{System: "sys", User: "write"})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []string{"Pack ", "light, ", "camp warm."}, collect(t, s))
	assert.NoError(t, s.Err())
	assert.Equal(t, "/v1beta/models/gemini-test:streamGenerateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestGenAIStreamMidStreamErrorSurfacesThroughErr(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, geminiChunk("first "))
		fmt.Fprint(w, `{"error":{"code":500,"message":"backend went away","status":"INTERNAL"}}`+"\n\n")
		fmt.Fprint(w, geminiChunk("never seen"))
	}))
	defer ts.Close()

	s, err := testGenAI(t, ts).Stream(context.Background(), Prompt{User: "write"})
	require.NoError(t, err)
	defer s.Close()

	require.True(t, s.Next())
	assert.Equal(t, "first ", s.Text())
	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), types.ErrUpstreamUnavailable)
	assert.Contains(t, s.Err().Error(), "backend went away")
	assert.False(t, s.Next(), "stream stays finished after an error")
}

func TestGenAIStreamSetupFailureSurfacesOnFirstNext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"bad model","status":"INVALID_ARGUMENT"}}`)
	}))
	defer ts.Close()

	s, err := testGenAI(t, ts).Stream(context.Background(), Prompt{User: "write"})
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Next())
	assert.ErrorIs(t, s.Err(), types.ErrUpstreamUnavailable)
}

func TestGenAIStreamCloseBeforeExhaustion(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, geminiChunk("only chunk "))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer ts.Close()

	s, err := testGenAI(t, ts).Stream(context.Background(), Prompt{User: "write"})
	require.NoError(t, err)

	require.True(t, s.Next())
	assert.Equal(t, "only chunk ", s.Text())
	require.NoError(t, s.Close())
}

func TestGenAICompleteJoinsParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Gear "},{"text":"guide"}]}}]}`)
	}))
	defer ts.Close()

	got, err := testGenAI(t, ts).Complete(context.Background(), Prompt{User: "write"})
	require.NoError(t, err)
	assert.Equal(t, "Gear guide", got)
}
