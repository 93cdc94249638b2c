// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"go.uber.org/zap"

	"github.com/pdiddy/creative-writer/pkg/types"
)

// OpenAI implements Generator with the openai-go chat completions API. The
// same type serves Azure OpenAI when the provider is "azure".
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	log         *zap.Logger
}

// ClientOptions returns the openai-go request options for an OpenAI or Azure
// OpenAI endpoint. The embedding adapter shares this helper.
func ClientOptions(provider, apiKey, endpoint, apiVersion string) []option.RequestOption {
	if provider == types.ProviderAzure {
		return []option.RequestOption{
			azure.WithEndpoint(endpoint, apiVersion),
			azure.WithAPIKey(apiKey),
		}
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithBaseURL(endpoint))
	}
	return opts
}

// NewOpenAI creates a Generator for the openai or azure provider.
func NewOpenAI(cfg types.LLMConfig, logger *zap.Logger, extra ...option.RequestOption) *OpenAI {
	opts := ClientOptions(cfg.Provider, cfg.APIKey, cfg.Endpoint, cfg.APIVersion)
	opts = append(opts, extra...)
	return &OpenAI{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         logger,
	}
}

func (o *OpenAI) params(p Prompt) openai.ChatCompletionNewParams {
	var msgs []openai.ChatCompletionMessageParamUnion
	if p.System != "" {
		msgs = append(msgs, openai.SystemMessage(p.System))
	}
	msgs = append(msgs, openai.UserMessage(p.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: msgs,
	}
	if o.temperature > 0 {
		params.Temperature = openai.Float(o.temperature)
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(o.maxTokens))
	}
	return params
}

// Complete sends one chat completion request.
func (o *OpenAI) Complete(ctx context.Context, p Prompt) (string, error) {
	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, o.params(p))
	if err != nil {
		return "", upstream("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", upstream("openai", errors.New("empty choices"))
	}
	o.log.Debug("completion finished",
		zap.String("model", o.model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))
	return resp.Choices[0].Message.Content, nil
}

// Stream opens a streaming chat completion. Request errors surface on the
// first call to Next through Err.
func (o *OpenAI) Stream(ctx context.Context, p Prompt) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := o.client.Chat.Completions.NewStreaming(ctx, o.params(p))
	o.log.Debug("stream opened", zap.String("model", o.model))
	return &openAIStream{s: s, cancel: cancel}, nil
}

type openAIStream struct {
	s      *ssestream.Stream[openai.ChatCompletionChunk]
	cancel context.CancelFunc
	text   string
}

func (st *openAIStream) Next() bool {
	for st.s.Next() {
		c := st.s.Current()
		// Azure sends content-filter events with no choices.
		if len(c.Choices) == 0 || c.Choices[0].Delta.Content == "" {
			continue
		}
		st.text = c.Choices[0].Delta.Content
		return true
	}
	st.text = ""
	return false
}

func (st *openAIStream) Text() string { return st.text }

func (st *openAIStream) Err() error {
	if err := st.s.Err(); err != nil {
		return upstream("openai", err)
	}
	return nil
}

func (st *openAIStream) Close() error {
	st.cancel()
	return st.s.Close()
}
