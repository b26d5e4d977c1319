// Package paginate slices ordered, filtered collections by page number or
// by cursor. The functions are pure; Paginator layers them over a TTL
// cache so repeated page requests do not reload the collection.
package paginate

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage is returned when page or page size is below one.
	ErrInvalidPage = errors.New("paginate: page and page size must be >= 1")

	// ErrCursorNotFound is returned in strict mode for an unknown cursor.
	ErrCursorNotFound = errors.New("paginate: cursor not found")
)

// Filter reports whether an item should be kept. Filters combine with AND.
type Filter[T any] func(T) bool

// Page is one offset page.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// CursorPage is one cursor page. NextCursor is set only when HasMore.
type CursorPage[T any] struct {
	Data           []T    `json:"data"`
	NextCursor     string `json:"nextCursor,omitempty"`
	PreviousCursor string `json:"previousCursor,omitempty"`
	HasMore        bool   `json:"hasMore"`
	HasPrevious    bool   `json:"hasPrevious"`
}

// Apply returns the items that pass every filter, preserving order.
func Apply[T any](items []T, filters ...Filter[T]) []T {
	if len(filters) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
next:
	for _, it := range items {
		for _, f := range filters {
			if f != nil && !f(it) {
				continue next
			}
		}
		out = append(out, it)
	}
	return out
}

// Offset returns page (1-based) of size pageSize from the filtered items.
// A page past the end has empty Data but correct totals.
func Offset[T any](items []T, filters []Filter[T], page, pageSize int) (Page[T], error) {
	if page < 1 || pageSize < 1 {
		return Page[T]{}, fmt.Errorf("%w: page=%d pageSize=%d", ErrInvalidPage, page, pageSize)
	}

	filtered := Apply(items, filters...)
	total := len(filtered)

	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}

	// Compare page numbers before multiplying so huge pages cannot overflow.
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * pageSize
		end = start + min(pageSize, total-start)
	}

	data := make([]T, end-start)
	copy(data, filtered[start:end])

	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// CursorOption configures Cursor.
type CursorOption func(*cursorConfig)

type cursorConfig struct {
	strict bool
}

// WithStrictCursor makes an unknown cursor an error instead of restarting
// from the first item.
func WithStrictCursor() CursorOption {
	return func(c *cursorConfig) { c.strict = true }
}

// Cursor returns up to limit items following the item whose id equals
// cursor. An empty cursor starts at the beginning. An unknown cursor also
// starts at the beginning unless WithStrictCursor is given.
func Cursor[T any](items []T, idOf func(T) string, filters []Filter[T], cursor string, limit int, opts ...CursorOption) (CursorPage[T], error) {
	if limit < 1 {
		return CursorPage[T]{}, fmt.Errorf("%w: limit=%d", ErrInvalidPage, limit)
	}
	var cfg cursorConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	filtered := Apply(items, filters...)

	start := 0
	if cursor != "" {
		idx := indexOf(filtered, idOf, cursor)
		switch {
		case idx >= 0:
			start = idx + 1
		case cfg.strict:
			return CursorPage[T]{}, fmt.Errorf("%w: %q", ErrCursorNotFound, cursor)
		}
	}

	end := start + min(limit, len(filtered)-start)
	data := make([]T, end-start)
	copy(data, filtered[start:end])

	page := CursorPage[T]{
		Data:        data,
		HasMore:     end < len(filtered),
		HasPrevious: start > 0,
	}
	if page.HasMore && len(data) > 0 {
		page.NextCursor = idOf(data[len(data)-1])
	}
	// The previous page begins limit items back; its cursor is the item just
	// before that. An empty PreviousCursor with HasPrevious means "first page".
	if prev := start - limit - 1; page.HasPrevious && prev >= 0 {
		page.PreviousCursor = idOf(filtered[prev])
	}
	return page, nil
}

func indexOf[T any](items []T, idOf func(T) string, id string) int {
	for i, it := range items {
		if idOf(it) == id {
			return i
		}
	}
	return -1
}
