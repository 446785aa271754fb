// Package rulegen derives pattern rules from review standards, using an
// OpenAI-compatible chat model when one is configured and keyword templates
// otherwise.
package rulegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/pkg/utils"
)

// answerLogLimit caps how much of an unparseable answer is logged.
const answerLogLimit = 200

// ErrEmptyResponse is returned when the model answers without choices.
var ErrEmptyResponse = errors.New("empty model response")

// Client is the part of the OpenAI client the generator needs.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Result is the outcome of one generation.
type Result struct {
	Rules       []rules.Payload `json:"rules"`
	Model       string          `json:"model,omitempty"`
	AIGenerated bool            `json:"is_ai_generated"`
}

// Generator turns standard content into rule payloads.
type Generator struct {
	client      Client
	model       string
	maxTokens   int
	temperature float32
	attempts    uint
	delay       time.Duration
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithClient replaces the chat client built from the configuration.
func WithClient(c Client) Option {
	return func(g *Generator) {
		g.client = c
	}
}

// WithRetryDelay sets the initial backoff between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(g *Generator) {
		g.delay = d
	}
}

// NewGenerator creates a generator from cfg. Without an API key no client is
// built and Generate always uses the keyword templates.
func NewGenerator(cfg config.LLMConfig, opts ...Option) *Generator {
	g := &Generator{
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		attempts:    uint(max(cfg.MaxRetries, 1)),
		delay:       time.Second,
		logger:      zap.NewNop(),
	}
	if cfg.Enabled() {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		clientCfg.HTTPClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
		g.client = openai.NewClientWithConfig(clientCfg)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model ID.
func (g *Generator) Model() string {
	return g.model
}

// Generate derives rules from a standard. Model failures are logged and
// answered with the keyword templates, so Generate always returns rules.
func (g *Generator) Generate(ctx context.Context, content, category string) Result {
	if g.client == nil {
		return Result{Rules: FromTemplates(content, category)}
	}

	payloads, err := g.generateAI(ctx, content, category)
	if err != nil {
		g.logger.Warn("AI rule generation failed, using templates",
			zap.String("model", g.model),
			zap.Error(err),
		)
		return Result{Rules: FromTemplates(content, category)}
	}
	g.logger.Info("Generated rules",
		zap.String("model", g.model),
		zap.Int("rules", len(payloads)),
	)
	return Result{Rules: payloads, Model: g.model, AIGenerated: true}
}

func (g *Generator) generateAI(ctx context.Context, content, category string) ([]rules.Payload, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(content, category)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	var answer string
	err := retry.Do(
		func() error {
			resp, err := g.client.CreateChatCompletion(ctx, req)
			if err != nil {
				if !retryable(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			if len(resp.Choices) == 0 {
				return ErrEmptyResponse
			}
			answer = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.logger.Debug("Retrying chat completion", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	payloads, err := ParseResponse(answer)
	if err != nil {
		g.logger.Debug("Unparseable model answer", zap.String("answer", utils.Truncate(answer, answerLogLimit)))
		return nil, err
	}
	return payloads, nil
}

// retryable reports whether a client error may succeed on a later attempt.
// Client errors other than rate limiting are final.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPStatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		code := reqErr.HTTPStatusCode
		return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError || code == 0
	}
	return true
}
