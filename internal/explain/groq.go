package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingCredential is returned when no API key was supplied. No call is made.
	ErrMissingCredential = errors.New("missing API key")

	// ErrExternalService wraps failures of the chat-completion endpoint.
	ErrExternalService = errors.New("explanation service failed")
)

// Request carries what the narration is about.
type Request struct {
	Record  models.FlowRecord
	Verdict models.Verdict
}

// Explainer narrates a verdict in plain language.
type Explainer interface {
	Explain(ctx context.Context, apiKey string, req Request) (string, error)
}

// Options configure the Groq client.
type Options struct {
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// GroqClient talks to Groq's OpenAI-compatible chat-completion endpoint.
// The key is supplied per call because it belongs to the dashboard user.
type GroqClient struct {
	opts Options
}

func NewGroqClient(opts Options) *GroqClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &GroqClient{opts: opts}
}

func (c *GroqClient) Explain(ctx context.Context, apiKey string, req Request) (string, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return "", ErrMissingCredential
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}

	cfg := openai.DefaultConfig(apiKey)
	if c.opts.BaseURL != "" {
		cfg.BaseURL = c.opts.BaseURL
	}
	if c.opts.HTTPClient != nil {
		cfg.HTTPClient = c.opts.HTTPClient
	}
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExternalService, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrExternalService)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
