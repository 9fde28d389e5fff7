package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

const defaultChannel = "lesson_chat"

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.Cmdable
	closer  func() error
	channel string
}

// DialRedis opens a client and verifies it with a PING.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func NewRedisBus(log *logger.Logger, rdb *goredis.Client, channel string) (Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ch := strings.TrimSpace(channel)
	if ch == "" {
		ch = defaultChannel
	}
	return &redisBus{
		log:     log.With("service", "RedisChatBus"),
		rdb:     rdb,
		closer:  rdb.Close,
		channel: ch,
	}, nil
}

func (b *redisBus) PublishChatQueued(ctx context.Context, ev ChatQueued) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis chat bus not initialized")
	}
	if ev.Event == "" {
		ev.Event = EventChatQueued
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, string(raw)).Err()
}

func (b *redisBus) Close() error {
	if b == nil || b.closer == nil {
		return nil
	}
	return b.closer()
}
