package redis

import (
	"context"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// KEYS[1] = debounce key, ARGV[1] = now (ms), ARGV[2] = interval (ms).
// The key expires with the interval, after which any mark is allowed again.
var markScript = backend.NewScript(`
local last = redis.call("get", KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) < tonumber(ARGV[2]) then
	return 0
end
redis.call("set", KEYS[1], ARGV[1], "px", ARGV[2])
return 1
`)

// DebounceStore implements ports.DebounceStore on Redis so that several
// replicas share the same throttling view.
type DebounceStore struct {
	client *backend.Client
	prefix string
}

// NewDebounceStore creates a store writing keys under prefix.
func NewDebounceStore(client *backend.Client, prefix string) *DebounceStore {
	return &DebounceStore{client: client, prefix: prefix}
}

// TryMark atomically checks and records the last action time for key.
func (s *DebounceStore) TryMark(ctx context.Context, key string, now time.Time, interval time.Duration) (bool, error) {
	if interval <= 0 {
		return true, nil
	}
	ms := interval.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	res, err := markScript.Run(ctx, s.client, []string{s.prefix + key}, now.UnixMilli(), ms).Int()
	if err != nil {
		return false, fmt.Errorf("debounce mark failed: %w", err)
	}
	return res == 1, nil
}
