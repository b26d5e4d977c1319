package paginate

import (
	"context"

	"github.com/Santosh-B-Vitana/smsv2-sub000/cache"
)

// Loader produces the full ordered collection for a cache key.
type Loader[T any] func(ctx context.Context, key string) ([]T, error)

// Paginator serves pages of collections loaded through a TTL cache.
type Paginator[T any] struct {
	cache *cache.Cache[[]T]
	load  Loader[T]
	idOf  func(T) string
}

// NewPaginator creates a Paginator. idOf extracts the cursor id of an item.
func NewPaginator[T any](c *cache.Cache[[]T], load Loader[T], idOf func(T) string) *Paginator[T] {
	return &Paginator[T]{cache: c, load: load, idOf: idOf}
}

func (p *Paginator[T]) collection(ctx context.Context, key string) ([]T, error) {
	return p.cache.GetOrLoad(ctx, key, func(ctx context.Context) ([]T, error) {
		return p.load(ctx, key)
	})
}

// Offset returns an offset page of the collection stored under key.
func (p *Paginator[T]) Offset(ctx context.Context, key string, filters []Filter[T], page, pageSize int) (Page[T], error) {
	items, err := p.collection(ctx, key)
	if err != nil {
		return Page[T]{}, err
	}
	return Offset(items, filters, page, pageSize)
}

// Cursor returns a cursor page of the collection stored under key.
func (p *Paginator[T]) Cursor(ctx context.Context, key string, filters []Filter[T], cursor string, limit int, opts ...CursorOption) (CursorPage[T], error) {
	items, err := p.collection(ctx, key)
	if err != nil {
		return CursorPage[T]{}, err
	}
	return Cursor(items, p.idOf, filters, cursor, limit, opts...)
}

// Invalidate drops cached collections whose key starts with prefix, so the
// next page request reloads. Call it after writes. An empty prefix is
// ignored rather than clearing the whole cache.
func (p *Paginator[T]) Invalidate(prefix string) int {
	if prefix == "" {
		return 0
	}
	return p.cache.InvalidatePrefix(prefix)
}
