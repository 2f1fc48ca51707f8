package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	skuCachePrefix   = "sku:"
	skuVersionPrefix = "skuver:"
	skuCacheTTL      = 15 * time.Minute
)

// Read-through cache for scanner lookups. Best effort: every redis error is
// treated as a miss, and a nil client disables the cache.
//
// Every invalidation bumps skuver:{sku}. A fill watches that key across the
// store read, so an invalidation that lands in between aborts the fill
// instead of caching the stock it read before the change.

func (s *inventarioService) cacheGet(ctx context.Context, sku string) (*dto.ProductoResponse, bool) {
	if s.rdb == nil {
		return nil, false
	}
	cached, err := s.rdb.Get(ctx, skuCachePrefix+sku).Bytes()
	if err != nil {
		return nil, false
	}
	var resp dto.ProductoResponse
	if err := json.Unmarshal(cached, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// cacheFill runs load and caches its result under sku, unless the SKU was
// invalidated while load ran. The result of load is returned either way.
func (s *inventarioService) cacheFill(
	ctx context.Context,
	sku string,
	load func() (*dto.ProductoResponse, error),
) (*dto.ProductoResponse, error) {
	if s.rdb == nil {
		return load()
	}
	var (
		resp    *dto.ProductoResponse
		loadErr error
		cargado bool
	)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		resp, loadErr = load()
		cargado = true
		if loadErr != nil {
			return nil
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, skuCachePrefix+sku, b, skuCacheTTL)
			return nil
		})
		return err
	}, skuVersionPrefix+sku)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		log.Debug().Str("sku", sku).Msg("cache: invalidado durante la lectura, no se guarda")
	case err != nil:
		log.Debug().Err(err).Str("sku", sku).Msg("cache: no disponible")
	}
	if !cargado {
		return load()
	}
	return resp, loadErr
}

func (s *inventarioService) cacheDel(ctx context.Context, skus ...string) {
	if s.rdb == nil || len(skus) == 0 {
		return
	}
	_, _ = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, sku := range skus {
			pipe.Del(ctx, skuCachePrefix+sku)
			pipe.Incr(ctx, skuVersionPrefix+sku)
			pipe.Expire(ctx, skuVersionPrefix+sku, skuCacheTTL)
		}
		return nil
	})
}
