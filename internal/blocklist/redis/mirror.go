package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quietpost/quietpost/internal/blocklist"
)

// Mirror keeps a best-effort copy of the block set in Redis under
// "blocked:<id>" keys, so sibling processes can consult it without reading
// the file. The file-backed store stays authoritative.
type Mirror struct {
	client *redis.Client
}

// NewMirror wraps an existing Redis client.
func NewMirror(client *redis.Client) *Mirror {
	return &Mirror{client: client}
}

func mirrorKey(id string) string {
	return fmt.Sprintf("blocked:%s", id)
}

func (m *Mirror) SetBlocked(ctx context.Context, id string) error {
	return m.client.Set(ctx, mirrorKey(id), "1", 0).Err()
}

func (m *Mirror) ClearBlocked(ctx context.Context, id string) error {
	return m.client.Del(ctx, mirrorKey(id)).Err()
}

// Ensure Mirror implements blocklist.Mirror
var _ blocklist.Mirror = (*Mirror)(nil)
