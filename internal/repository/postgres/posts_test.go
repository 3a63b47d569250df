package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository"
)

var postRows = []string{"id", "title", "intro", "date", "slug", "body", "url_path", "first_published_at"}

func TestPostRepository_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	published := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(postRows).
		AddRow(int64(2), "Second post", "intro two", published, "second-post", "<p>two</p>", "/blog/second-post/", published).
		AddRow(int64(1), "First post", "intro one", published.Add(-24*time.Hour), "first-post", "<p>one</p>", "/blog/first-post/", published.Add(-24*time.Hour))

	mock.ExpectQuery(`SELECT .+ FROM blog_blogpage b JOIN wagtailcore_page p`).
		WithArgs(true).
		WillReturnRows(rows)

	posts, err := repo.List(context.Background(), port.PostFilter{Limit: 20})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != 2 || posts[0].Slug != "second-post" {
		t.Fatalf("unexpected first post: %+v", posts[0])
	}
	if posts[0].Date == nil || !posts[0].Date.Equal(published) {
		t.Fatalf("unexpected date on first post: %v", posts[0].Date)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_ListExcludesRestrictedPages(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	mock.ExpectQuery(`NOT EXISTS \(SELECT 1 FROM wagtailcore_pageviewrestriction r JOIN wagtailcore_page rp ON rp\.id = r\.page_id WHERE p\.path LIKE rp\.path`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows(postRows))

	if _, err := repo.List(context.Background(), port.PostFilter{Limit: 20}); err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_ListWithSearch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	mock.ExpectQuery(`p\.title ILIKE`).
		WithArgs(true, "%golang%").
		WillReturnRows(pgxmock.NewRows(postRows))

	posts, err := repo.List(context.Background(), port.PostFilter{Limit: 10, Search: "golang"})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("expected no posts, got %d", len(posts))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM blog_blogpage b`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background(), "")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	published := time.Date(2025, 4, 10, 8, 30, 0, 0, time.UTC)
	rows := pgxmock.NewRows(postRows).
		AddRow(int64(7), "Hello", "greeting", published, "hello", "<p>hi</p>", "/blog/hello/", published)

	mock.ExpectQuery(`SELECT .+ WHERE p\.id = \$1 AND p\.live = \$2`).
		WithArgs(int64(7), true).
		WillReturnRows(rows)

	post, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if post.ID != 7 || post.Body != "<p>hi</p>" {
		t.Fatalf("unexpected post: %+v", post)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostRepository_GetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostRepository(mock)

	mock.ExpectQuery(`SELECT .+ WHERE p\.id = \$1 AND p\.live = \$2`).
		WithArgs(int64(404), true).
		WillReturnRows(pgxmock.NewRows(postRows))

	_, err = repo.GetByID(context.Background(), 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
