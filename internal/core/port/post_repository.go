package port

import (
	"context"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
)

// PostFilter narrows a listing query. Search is a case-insensitive substring
// match on the title; an empty string disables filtering.
type PostFilter struct {
	Limit  int
	Offset int
	Search string
}

// PostRepository exposes read access to published CMS pages. The content
// store owns the data; every result is a point-in-time snapshot.
type PostRepository interface {
	List(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	Count(ctx context.Context, search string) (int, error)
	GetByID(ctx context.Context, id int64) (*domain.Post, error)
}
