package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKey = "clubhouse:counters"
	opTimeout  = 500 * time.Millisecond
)

// Counter keeps named totals in a single Redis hash so every instance of the
// site adds to the same numbers. A nil client turns every call into a no-op.
type Counter struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client) *Counter {
	return &Counter{client: client, key: defaultKey}
}

// Add increments name by one. Failures are logged and dropped.
func (c *Counter) Add(ctx context.Context, name string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.HIncrBy(ctx, c.key, name, 1).Err(); err != nil {
		log.Warnf("[Counter] Increment %s failed: %v", name, err)
	}
}

// Snapshot returns every total recorded so far.
func (c *Counter) Snapshot(ctx context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	if c == nil || c.client == nil {
		return out, nil
	}
	data, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	for k, v := range data {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
