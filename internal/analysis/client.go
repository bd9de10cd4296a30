package analysis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/wesleyorama2/jtlens/internal/config"
)

// ErrorKind classifies why an analysis request failed.
type ErrorKind string

const (
	KindAuth     ErrorKind = "authentication"
	KindQuota    ErrorKind = "quota"
	KindNetwork  ErrorKind = "network"
	KindResponse ErrorKind = "response"
	KindRequest  ErrorKind = "request"
)

// ErrEmptyResponse is wrapped when the model returns no text.
var ErrEmptyResponse = errors.New("model returned no content")

// AnalysisRequestError reports a failed call to the text-generation
// service. It is never retried.
type AnalysisRequestError struct {
	Model string
	Kind  ErrorKind
	Err   error
}

func (e *AnalysisRequestError) Error() string {
	return fmt.Sprintf("%s error from model %s: %v", e.Kind, e.Model, e.Err)
}

func (e *AnalysisRequestError) Unwrap() error {
	return e.Err
}

// Generator is the part of a langchaingo model the client uses.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// GeneratorFactory builds a Generator from the run configuration.
type GeneratorFactory func(cfg config.Config) (Generator, error)

// OpenAIGenerator builds an OpenAI chat-completion model. The API key is
// taken from cfg only, so an unset key fails here instead of silently
// falling back to another variable.
func OpenAIGenerator(cfg config.Config) (Generator, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.APIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.APIBaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// Client sends one prompt per run to the configured model.
type Client struct {
	cfg       config.Config
	generator GeneratorFactory
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithGenerator replaces the model constructor.
func WithGenerator(factory GeneratorFactory) ClientOption {
	return func(c *Client) {
		c.generator = factory
	}
}

// NewClient creates a client for cfg.Model. Nothing is validated until
// Analyze is called; in particular a missing API key is only reported
// then, as an authentication failure.
func NewClient(cfg config.Config, options ...ClientOption) *Client {
	c := &Client{
		cfg:       cfg,
		generator: OpenAIGenerator,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Analyze sends the system role message and prompt as a single synchronous
// chat completion bounded by cfg.MaxTokens and returns the reply text.
func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	model, err := c.generator(c.cfg)
	if err != nil {
		return "", c.fail(err)
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := model.GenerateContent(ctx, messages,
		llms.WithModel(c.cfg.Model),
		llms.WithMaxTokens(c.cfg.MaxTokens),
	)
	if err != nil {
		return "", c.fail(err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", &AnalysisRequestError{Model: c.cfg.Model, Kind: KindResponse, Err: ErrEmptyResponse}
	}

	return resp.Choices[0].Content, nil
}

func (c *Client) fail(err error) error {
	return &AnalysisRequestError{Model: c.cfg.Model, Kind: classify(err), Err: err}
}

// classify maps provider errors onto an ErrorKind. The provider reports
// HTTP failures as formatted strings, so status codes are matched in text.
func classify(err error) ErrorKind {
	if errors.Is(err, openai.ErrMissingToken) {
		return KindAuth
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"):
		return KindAuth
	case strings.Contains(msg, "429"), strings.Contains(msg, "quota"),
		strings.Contains(msg, "rate limit"):
		return KindQuota
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return KindNetwork
	}
	return KindRequest
}
