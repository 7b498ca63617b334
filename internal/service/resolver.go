package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kioskpos/internal/dto"
	"kioskpos/internal/model"
	"kioskpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ItemResolver describes a line item's catalog entry for display.
type ItemResolver interface {
	Resolve(ctx context.Context, kind model.ItemKind, ref string) (*dto.ItemSummary, error)
}

type lookupFunc func(ctx context.Context, id uuid.UUID) (*dto.ItemSummary, error)

type itemResolver struct {
	rdb     *redis.Client
	ttl     time.Duration
	lookups map[model.ItemKind]lookupFunc
}

// NewItemResolver resolves through the catalog, caching summaries in Redis
// for ttl. rdb may be nil to disable caching.
func NewItemResolver(catalog repository.CatalogRepository, rdb *redis.Client, ttl time.Duration) ItemResolver {
	return &itemResolver{
		rdb: rdb,
		ttl: ttl,
		lookups: map[model.ItemKind]lookupFunc{
			model.ItemKindProduct: func(ctx context.Context, id uuid.UUID) (*dto.ItemSummary, error) {
				p, err := catalog.FindProduct(ctx, id)
				if err != nil {
					return nil, err
				}
				return &dto.ItemSummary{Name: p.Name, Price: p.Price.StringFixed(2), Available: p.Available}, nil
			},
			model.ItemKindMenu: func(ctx context.Context, id uuid.UUID) (*dto.ItemSummary, error) {
				m, err := catalog.FindMenu(ctx, id)
				if err != nil {
					return nil, err
				}
				return &dto.ItemSummary{Name: m.Name, Price: m.Price.StringFixed(2), Available: m.Available}, nil
			},
		},
	}
}

func cacheKey(kind model.ItemKind, ref string) string {
	return fmt.Sprintf("catalog:%s:%s", kind, ref)
}

func (r *itemResolver) Resolve(ctx context.Context, kind model.ItemKind, ref string) (*dto.ItemSummary, error) {
	lookup, ok := r.lookups[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownItemKind, kind)
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, ErrNotFound
	}

	key := cacheKey(kind, ref)
	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
			var summary dto.ItemSummary
			if jsonErr := json.Unmarshal(cached, &summary); jsonErr == nil {
				return &summary, nil
			}
		}
	}

	summary, err := lookup(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// best effort
	if r.rdb != nil {
		if b, jsonErr := json.Marshal(summary); jsonErr == nil {
			if setErr := r.rdb.Set(ctx, key, b, r.ttl).Err(); setErr != nil {
				log.Debug().Err(setErr).Str("key", key).Msg("catalog cache write failed")
			}
		}
	}
	return summary, nil
}
