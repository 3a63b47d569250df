package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/cache"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository"
)

type fakePostRepository struct {
	posts      []domain.Post
	listErr    error
	countErr   error
	listCalls  int
	countCalls int
}

func newFakePostRepository(n int) *fakePostRepository {
	repo := &fakePostRepository{}
	for i := 1; i <= n; i++ {
		repo.posts = append(repo.posts, domain.Post{
			ID:    int64(i),
			Title: fmt.Sprintf("Post %d", i),
			Slug:  fmt.Sprintf("post-%d", i),
		})
	}
	return repo
}

func (f *fakePostRepository) matching(search string) []domain.Post {
	if search == "" {
		return f.posts
	}
	var out []domain.Post
	for _, p := range f.posts {
		if strings.Contains(strings.ToLower(p.Title), strings.ToLower(search)) {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakePostRepository) List(_ context.Context, filter port.PostFilter) ([]domain.Post, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	matched := f.matching(filter.Search)
	if filter.Offset >= len(matched) {
		return nil, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (f *fakePostRepository) Count(_ context.Context, search string) (int, error) {
	f.countCalls++
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.matching(search)), nil
}

func (f *fakePostRepository) GetByID(_ context.Context, id int64) (*domain.Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			post := p
			return &post, nil
		}
	}
	return nil, repository.ErrNotFound
}

func newTestPostService(t *testing.T, repo *fakePostRepository) *PostService {
	t.Helper()

	pages, err := cache.NewPageCache(cache.DefaultCapacity)
	if err != nil {
		t.Fatalf("new page cache: %v", err)
	}
	return NewPostService(repo, pages, nil)
}

func TestPostServiceListSecondCallHitsCache(t *testing.T) {
	repo := newFakePostRepository(10)
	svc := newTestPostService(t, repo)

	first, err := svc.List(context.Background(), ListQuery{Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if first.FromCache {
		t.Fatal("first call must miss the cache")
	}
	if len(first.Posts) != 5 {
		t.Fatalf("expected 5 posts, got %d", len(first.Posts))
	}

	second, err := svc.List(context.Background(), ListQuery{Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second call must hit the cache")
	}
	if repo.listCalls != 1 || repo.countCalls != 1 {
		t.Fatalf("cache hit must not touch the repository, got %d/%d calls", repo.listCalls, repo.countCalls)
	}

	stats := svc.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate() != 0.5 {
		t.Fatalf("expected hit rate 0.5, got %v", stats.HitRate())
	}
}

func TestPostServiceListPagination(t *testing.T) {
	repo := newFakePostRepository(3)
	svc := newTestPostService(t, repo)

	page1, err := svc.List(context.Background(), ListQuery{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page1.Posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(page1.Posts))
	}
	if !page1.Pagination.HasNext {
		t.Fatal("expected has_next on first page")
	}
	if page1.Pagination.TotalCount != 3 {
		t.Fatalf("expected total_count 3, got %d", page1.Pagination.TotalCount)
	}

	page2, err := svc.List(context.Background(), ListQuery{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page2.Posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(page2.Posts))
	}
	if page2.Pagination.HasNext {
		t.Fatal("expected no next page")
	}
	if !page2.Pagination.HasPrev {
		t.Fatal("expected has_prev on second page")
	}
}

func TestPostServiceListPageOverridesOffset(t *testing.T) {
	repo := newFakePostRepository(10)
	svc := newTestPostService(t, repo)

	res, err := svc.List(context.Background(), ListQuery{Limit: 3, Offset: 1, Page: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	// page=2, limit=3 -> offset 3, so the window starts at the 4th post.
	if res.Posts[0].ID != 4 {
		t.Fatalf("expected window to start at post 4, got %d", res.Posts[0].ID)
	}
	if res.Pagination.CurrentPage != 2 {
		t.Fatalf("expected current page 2, got %d", res.Pagination.CurrentPage)
	}
}

func TestPostServiceListValidation(t *testing.T) {
	svc := newTestPostService(t, newFakePostRepository(1))

	cases := []struct {
		name string
		q    ListQuery
		want error
	}{
		{"limit too large", ListQuery{Limit: 101}, ErrInvalidLimit},
		{"limit negative", ListQuery{Limit: -1}, ErrInvalidLimit},
		{"offset negative", ListQuery{Limit: 10, Offset: -5}, ErrInvalidOffset},
		{"page negative", ListQuery{Limit: 10, Page: -1}, ErrInvalidPage},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.List(context.Background(), tc.q); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestPostServiceSearchDoesNotReuseUnfilteredPage(t *testing.T) {
	repo := newFakePostRepository(10)
	svc := newTestPostService(t, repo)

	if _, err := svc.List(context.Background(), ListQuery{Limit: 5}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	res, err := svc.List(context.Background(), ListQuery{Limit: 5, Search: "Post 3"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.FromCache {
		t.Fatal("filtered listing must not reuse the unfiltered cache entry")
	}
	if len(res.Posts) != 1 || res.Posts[0].ID != 3 {
		t.Fatalf("expected only post 3, got %+v", res.Posts)
	}
	if res.Pagination.TotalCount != 1 {
		t.Fatalf("expected filtered total 1, got %d", res.Pagination.TotalCount)
	}
}

func TestPostServiceListRepositoryError(t *testing.T) {
	repo := newFakePostRepository(3)
	repo.listErr = errors.New("connection refused")
	svc := newTestPostService(t, repo)

	if _, err := svc.List(context.Background(), ListQuery{Limit: 5}); err == nil {
		t.Fatal("expected error from repository")
	}
}

func TestPostServiceGet(t *testing.T) {
	repo := newFakePostRepository(3)
	svc := newTestPostService(t, repo)

	post, err := svc.Get(context.Background(), 2)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if post.ID != 2 {
		t.Fatalf("expected post 2, got %d", post.ID)
	}

	if _, err := svc.Get(context.Background(), 99); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostServiceClearCacheForcesFreshRead(t *testing.T) {
	repo := newFakePostRepository(5)
	svc := newTestPostService(t, repo)

	if _, err := svc.List(context.Background(), ListQuery{Limit: 5}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	svc.ClearCache()

	res, err := svc.List(context.Background(), ListQuery{Limit: 5})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.FromCache {
		t.Fatal("expected fresh read after clear")
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected 2 repository reads, got %d", repo.listCalls)
	}
}
