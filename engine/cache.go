package engine

import (
	"github.com/Santosh-B-Vitana/smsv2-sub000/cache"
	"github.com/Santosh-B-Vitana/smsv2-sub000/paginate"
)

// NewCache returns a cache using the engine's configured TTL.
func NewCache[V any](eng *Engine) *cache.Cache[V] {
	return cache.New[V](eng.config.CacheTTL)
}

// NewPaginator returns a paginator over a fresh cache with the engine's TTL.
func NewPaginator[T any](eng *Engine, load paginate.Loader[T], idOf func(T) string) *paginate.Paginator[T] {
	return paginate.NewPaginator(NewCache[[]T](eng), load, idOf)
}
