// Package ai implements the RevisionGenerator port on top of an
// OpenAI-compatible chat completion API.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/config"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ctxutil"
	"github.com/example/focusarea/internal/ports/secondary"
)

// ErrNoAPIKey is returned by NewGenerator when neither an API key nor a
// custom base URL is configured.
var ErrNoAPIKey = errors.New("no API key configured for the AI revision service")

// Generator asks a chat model for a revised record batch.
type Generator struct {
	client  *openai.Client
	model   string
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGenerator builds a generator from the AI section of the config.
// A base URL without an API key is accepted for local OpenAI-compatible servers.
func NewGenerator(cfg config.AIConfig, logger *zap.Logger) (*Generator, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout.Std()}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	logger = logger.Named("ai")
	logger.Info("initializing AI revision client", zap.String("model", model))

	return &Generator{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		breaker: newBreaker(cfg.Breaker, logger),
		limiter: newLimiter(cfg.RequestsPerMinute),
		logger:  logger,
	}, nil
}

// newLimiter allows perMinute calls per minute, all of them in a burst.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func newBreaker(cfg config.BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ai-revision",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval.Std(),
		Timeout:     cfg.Timeout.Std(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// A caller giving up is not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Propose sends the live records and the instructions to the model and
// decodes its answer into an incoming batch.
func (g *Generator) Propose(ctx context.Context, prompt secondary.RevisionPrompt) (*secondary.RevisionProposal, error) {
	requestID := ctxutil.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	userMessage, err := buildUserMessage(prompt)
	if err != nil {
		return nil, apperr.External("failed to build AI prompt", err)
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	g.logger.Debug("requesting AI revision",
		zap.String("request_id", requestID),
		zap.Int64("focus_area_id", prompt.FocusAreaID),
		zap.Int("records", len(prompt.Records)),
	)

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperr.External("AI revision rate limit exceeded", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.client.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperr.External("AI revision service temporarily unavailable", err)
		}
		return nil, apperr.External("AI revision request failed", err)
	}

	resp := result.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 {
		return nil, apperr.External("AI revision service returned no choices", nil)
	}
	choice := resp.Choices[0]
	g.logger.Debug("received AI revision",
		zap.String("request_id", requestID),
		zap.String("upstream_id", resp.ID),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	proposal, err := parseProposal(choice.Message.Content)
	if err != nil {
		return nil, apperr.External("AI revision service returned malformed output", err)
	}
	proposal.Model = resp.Model
	proposal.RequestID = requestID
	return proposal, nil
}

// modelAnswer is the JSON object the model is told to produce.
type modelAnswer struct {
	Summary string          `json:"summary"`
	Records json.RawMessage `json:"records"`
}

func parseProposal(content string) (*secondary.RevisionProposal, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("empty response")
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if len(answer.Records) == 0 {
		return nil, errors.New(`response has no "records" array`)
	}
	records, err := revision.DecodeBatch(answer.Records)
	if err != nil {
		return nil, err
	}
	return &secondary.RevisionProposal{
		Summary: strings.TrimSpace(answer.Summary),
		Records: records,
	}, nil
}

// Ensure Generator implements the interface
var _ secondary.RevisionGenerator = (*Generator)(nil)
