package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Cached memoizes replies in Redis so re-analysing an interview does not
// re-bill identical prompts. Cache errors are logged and bypassed.
type Cached struct {
	next   Client
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCached(next Client, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cached {
	return &Cached{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"llm": next.Name()}),
	}
}

func (c *Cached) Name() string { return c.next.Name() }

func (c *Cached) Complete(ctx context.Context, req Request) (string, error) {
	key := c.key(req)

	var reply string
	found, err := database.GetJSON(ctx, c.redis, key, &reply)
	if err != nil {
		c.logger.Warn("llm cache read failed", map[string]interface{}{"error": err})
	}
	if found {
		return reply, nil
	}

	reply, err = c.next.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	if err := database.SetJSON(ctx, c.redis, key, reply, c.ttl); err != nil {
		c.logger.Warn("llm cache write failed", map[string]interface{}{"error": err})
	}
	return reply, nil
}

func (c *Cached) key(req Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%.3f\x00%d", c.next.Name(), req.System, req.Prompt, req.Temperature, req.MaxTokens)
	return "llm:reply:" + hex.EncodeToString(h.Sum(nil))
}
