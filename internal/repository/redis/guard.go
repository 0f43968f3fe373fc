package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/redis/go-redis/v9"
)

const DefaultGuardTTL = 24 * time.Hour

var _ delivery.Guard = (*Guard)(nil)

// Guard remembers (notification, user, channel) triples for ttl. The first
// Claim wins; later claims within ttl report false.
type Guard struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewGuard(rdb redis.Cmdable, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &Guard{rdb: rdb, ttl: ttl, prefix: "lessonbell:sent"}
}

func (g *Guard) Claim(ctx context.Context, notificationID, userID int64, channel string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, g.key(notificationID, userID, channel), time.Now().UTC().Unix(), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release drops a claim so a later attempt may send again.
func (g *Guard) Release(ctx context.Context, notificationID, userID int64, channel string) error {
	if err := g.rdb.Del(ctx, g.key(notificationID, userID, channel)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (g *Guard) key(notificationID, userID int64, channel string) string {
	return fmt.Sprintf("%s:%d:%d:%s", g.prefix, notificationID, userID, channel)
}
