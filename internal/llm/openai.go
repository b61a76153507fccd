package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrCompletion marks a transport or provider failure.  The core never
// retries; the error is surfaced at the boundary and the failed turn
// leaves session state unchanged.
var ErrCompletion = errors.New("completion request failed")

// Client is the completion gateway used by the session machine.  The
// provider is stateless across calls: every request carries its full
// context in the prompts.  A maxTokens of zero leaves the provider's
// default in place.
type Client interface {
	// Complete performs a one-shot completion and returns the full reply.
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
	// Stream performs a streaming completion.  The returned stream is a
	// finite forward-only sequence of text fragments that concatenate to
	// the full reply.
	Stream(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Stream, error)
}

// Stream is a pull-based sequence of completion fragments.  Recv
// returns io.EOF after the final fragment.  Callers must Close the
// stream when done.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Collect drains a stream to completion and concatenates the fragments.
func Collect(s Stream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		fragment, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		b.WriteString(fragment)
	}
}

// OpenAIClient calls an OpenAI-compatible chat completion API.  The
// base URL is configurable so the same client works against Groq's
// compatibility endpoint, which hosts the llama models this tool was
// built around.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs a provider-backed client.  baseURL may be
// empty to use the OpenAI default.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Complete sends a one-shot chat completion request.
func (c *OpenAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  buildMessages(systemPrompt, userPrompt),
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", ErrCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream opens a streaming chat completion.
func (c *OpenAIClient) Stream(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (Stream, error) {
	s, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  buildMessages(systemPrompt, userPrompt),
		MaxTokens: maxTokens,
		Stream:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	return &openaiStream{inner: s}, nil
}

// buildMessages assembles the request messages.  Generation and
// evaluation prompts go out as a lone system message; chat turns add
// the rendered history as the user message.
func buildMessages(systemPrompt, userPrompt string) []openai.ChatCompletionMessage {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser, Content: userPrompt,
		})
	}
	return msgs
}

type openaiStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next non-empty delta.  Empty deltas (role headers,
// finish chunks) are skipped so consumers only see text.
func (s *openaiStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCompletion, err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *openaiStream) Close() error {
	return s.inner.Close()
}
