package service

import (
	"context"
	"time"

	"kioskpos/internal/order"
	"kioskpos/internal/repository"

	"github.com/redis/go-redis/v9"
)

// NumberGenerator proposes the next order number for a day window. A proposal
// is only a candidate: the unique index on (order_day, order_number) decides,
// and OrderService asks again on collision.
type NumberGenerator interface {
	Next(ctx context.Context, day order.Day) (string, error)
}

// ── Store strategy ────────────────────────────────────────────────────────────

type storeNumberGenerator struct {
	repo repository.OrderRepository
}

// NewStoreNumberGenerator proposes max(order_number of the day) + 1.
func NewStoreNumberGenerator(repo repository.OrderRepository) NumberGenerator {
	return &storeNumberGenerator{repo: repo}
}

func (g *storeNumberGenerator) Next(ctx context.Context, day order.Day) (string, error) {
	max, err := g.repo.MaxNumberForDay(ctx, day.Key)
	if err != nil {
		return "", err
	}
	return order.NextNumber(max), nil
}

// ── Redis strategy ────────────────────────────────────────────────────────────

const (
	numberKeyPrefix = "orders:seq:"
	numberKeyTTL    = 48 * time.Hour
)

// nextNumberScript floors the day counter at the store maximum (ARGV[1]), then
// increments it. Flooring keeps the counter correct after a Redis flush or
// when orders were created through the store strategy.
var nextNumberScript = redis.NewScript(`
local floor = tonumber(ARGV[1])
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current < floor then
  redis.call('SET', KEYS[1], floor)
end
local n = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], ARGV[2])
return n
`)

type redisNumberGenerator struct {
	rdb  *redis.Client
	repo repository.OrderRepository
}

// NewRedisNumberGenerator hands out numbers from an atomic per-day Redis counter,
// so concurrent instances rarely collide on the unique index.
func NewRedisNumberGenerator(rdb *redis.Client, repo repository.OrderRepository) NumberGenerator {
	return &redisNumberGenerator{rdb: rdb, repo: repo}
}

func (g *redisNumberGenerator) Next(ctx context.Context, day order.Day) (string, error) {
	max, err := g.repo.MaxNumberForDay(ctx, day.Key)
	if err != nil {
		return "", err
	}
	n, err := nextNumberScript.Run(ctx, g.rdb, []string{numberKeyPrefix + day.Key},
		max, int(numberKeyTTL.Seconds())).Int()
	if err != nil {
		return "", err
	}
	return order.FormatNumber(n), nil
}
