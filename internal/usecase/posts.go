package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/cache"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
)

const (
	// DefaultPageSize is used when the client does not request a limit.
	DefaultPageSize = 20
	// MaxPageSize caps the listing page size.
	MaxPageSize = 100
)

var (
	// ErrInvalidLimit indicates the requested page size is out of range.
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")
	// ErrInvalidOffset indicates a negative offset.
	ErrInvalidOffset = errors.New("offset must not be negative")
	// ErrInvalidPage indicates a page number below one.
	ErrInvalidPage = errors.New("page must be 1 or greater")
)

// ListQuery is the normalized listing request.
type ListQuery struct {
	Limit  int
	Offset int
	// Page is the optional 1-based page number; values above 1 override
	// Offset as (page-1)*limit, mirroring the public query contract.
	Page   int
	Search string
}

// ListResult pairs a page of posts with its pagination metadata.
type ListResult struct {
	Posts      []domain.Post
	Pagination Pagination
	FromCache  bool
}

// PostService serves the blog read path through the page cache.
type PostService struct {
	posts  port.PostRepository
	pages  *cache.PageCache
	logger *zap.Logger
	now    func() time.Time
}

// NewPostService wires the read path. The cache is injected rather than owned
// so its lifetime is decided by process composition, not package state.
func NewPostService(posts port.PostRepository, pages *cache.PageCache, logger *zap.Logger) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{
		posts:  posts,
		pages:  pages,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of published posts. Cache hits never touch the
// content store; a miss performs a fresh consistent read (slice plus count)
// and replaces the slot atomically.
func (s *PostService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	start := s.now()

	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit < 1 || q.Limit > MaxPageSize {
		return nil, ErrInvalidLimit
	}
	if q.Offset < 0 {
		return nil, ErrInvalidOffset
	}
	if q.Page < 0 {
		return nil, ErrInvalidPage
	}
	if q.Page > 1 {
		q.Offset = (q.Page - 1) * q.Limit
	}

	search := strings.TrimSpace(q.Search)
	key := cache.PageKey{Limit: q.Limit, Offset: q.Offset, Search: strings.ToLower(search)}

	if snapshot, ok := s.pages.Get(key); ok {
		return &ListResult{
			Posts:      snapshot.Posts,
			Pagination: Paginate(snapshot.TotalCount, q.Limit, q.Offset),
			FromCache:  true,
		}, nil
	}

	posts, err := s.posts.List(ctx, port.PostFilter{Limit: q.Limit, Offset: q.Offset, Search: search})
	if err != nil {
		s.logger.Error("list posts failed",
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list posts: %w", err)
	}

	total, err := s.posts.Count(ctx, search)
	if err != nil {
		s.logger.Error("count posts failed",
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("count posts: %w", err)
	}

	s.pages.Add(key, cache.PageSnapshot{Posts: posts, TotalCount: total})

	s.logger.Info("listing page loaded",
		zap.Int("limit", q.Limit),
		zap.Int("offset", q.Offset),
		zap.Int("returned", len(posts)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)

	return &ListResult{
		Posts:      posts,
		Pagination: Paginate(total, q.Limit, q.Offset),
	}, nil
}

// Get returns a single published post by id.
func (s *PostService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// Count returns the total number of published posts.
func (s *PostService) Count(ctx context.Context) (int, error) {
	return s.posts.Count(ctx, "")
}

// CacheStats exposes the page cache counters for the stats endpoint.
func (s *PostService) CacheStats() cache.Stats {
	return s.pages.Stats()
}

// ClearCache drops every cached page. Counters are cumulative and survive.
func (s *PostService) ClearCache() {
	start := s.now()
	s.pages.Clear()
	s.logger.Info("page cache cleared", zap.Duration("elapsed", s.now().Sub(start)))
}

// WithClock overrides the internal clock for deterministic tests.
func (s *PostService) WithClock(clock func() time.Time) *PostService {
	if clock != nil {
		s.now = clock
	}
	return s
}
