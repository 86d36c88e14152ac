// AngelaMos | 2026
// cache.go

package revalidate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pageKeyPrefix = "page:"
	scanBatch     = 100
)

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

// PageCache stores rendered public payloads in redis under page:<path>.
// Invalidate deletes the keys and announces the paths on a pub/sub channel
// for any external renderer.
type PageCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	channel string
}

func NewPageCache(client redis.UniversalClient, ttl time.Duration, channel string) *PageCache {
	return &PageCache{client: client, ttl: ttl, channel: channel}
}

func PageKey(path string) string {
	return pageKeyPrefix + path
}

type Announcement struct {
	Paths []string `json:"paths"`
	At    int64    `json:"at"`
}

func (c *PageCache) Get(ctx context.Context, path string) ([]byte, bool, error) {
	body, err := c.client.Get(ctx, PageKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get page %s: %w", path, err)
	}
	return body, true, nil
}

func (c *PageCache) Set(ctx context.Context, path string, body []byte) error {
	if err := c.client.Set(ctx, PageKey(path), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("set page %s: %w", path, err)
	}
	return nil
}

func (c *PageCache) Cached(ctx context.Context, prefix string) ([]string, error) {
	pattern := PageKey(globEscaper.Replace(prefix)) + "*"

	var paths []string
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		paths = append(paths, strings.TrimPrefix(iter.Val(), pageKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan pages %s: %w", pattern, err)
	}
	return paths, nil
}

func (c *PageCache) Invalidate(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, PageKey(p))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete pages: %w", err)
	}

	msg, err := json.Marshal(Announcement{Paths: paths, At: time.Now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}

	if err := c.client.Publish(ctx, c.channel, msg).Err(); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}

	return nil
}
