// Package llm talks to chat-completion backends. Scoring code depends only on
// the Client interface; a nil Client means the deterministic fallback paths
// are used.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/config"
	apperrors "candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Request is one system+user exchange.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Client returns the model's text reply for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

var (
	ErrEmptyPrompt   = errors.New("prompt must not be empty")
	ErrEmptyResponse = errors.New("model returned an empty response")
)

// New builds the client selected by cfg.Provider, wrapped in a Redis cache
// when cfg.CacheTTL > 0 and rdb is non-nil. Provider "none" returns nil.
func New(ctx context.Context, cfg config.LLMConfig, rdb *redis.Client, log logger.Logger) (Client, error) {
	var (
		c   Client
		err error
	)
	switch cfg.Provider {
	case "none", "":
		return nil, nil
	case "gemini":
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		c, err = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if rdb != nil && cfg.CacheTTL > 0 {
		c = NewCached(c, rdb, time.Duration(cfg.CacheTTL)*time.Second, log)
	}
	return c, nil
}

// requestError maps a backend failure to LLM_TIMEOUT when the caller's
// deadline ran out and LLM_REQUEST_FAILED otherwise.
func requestError(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(provider)
	}
	return apperrors.NewLLMRequestFailedError(provider, err)
}
