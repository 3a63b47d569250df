package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostRepository implements port.PostRepository against the CMS tables. Blog
// fields live in blog_blogpage, shared page fields (title, slug, url_path,
// publish state) in wagtailcore_page.
type PostRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPostRepository constructs a repository backed by any executor that
// satisfies pgExecutor (a pgxpool.Pool in production).
func NewPostRepository(exec pgExecutor) *PostRepository {
	return &PostRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// publicPredicate excludes pages living under any view restriction. The CMS
// stores restrictions against ancestor pages; descendants inherit them via
// the materialized path.
const publicPredicate = "NOT EXISTS (SELECT 1 FROM wagtailcore_pageviewrestriction r JOIN wagtailcore_page rp ON rp.id = r.page_id WHERE p.path LIKE rp.path || '%')"

var postColumns = []string{
	"p.id",
	"p.title",
	"b.intro",
	"b.date",
	"p.slug",
	"b.body",
	"p.url_path",
	"p.first_published_at",
}

// List returns published posts ordered by publication date, newest first,
// sliced to [offset, offset+limit).
func (r *PostRepository) List(ctx context.Context, filter port.PostFilter) ([]domain.Post, error) {
	query := r.builder.
		Select(postColumns...).
		From("blog_blogpage b").
		Join("wagtailcore_page p ON p.id = b.page_ptr_id").
		Where(squirrel.Eq{"p.live": true}).
		Where(squirrel.Expr(publicPredicate)).
		OrderBy("b.date DESC NULLS LAST", "p.first_published_at DESC NULLS LAST")

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(squirrel.ILike{"p.title": "%" + search + "%"})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list posts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]domain.Post, 0, filter.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}

	return posts, nil
}

// Count returns the number of published posts matching the search term.
func (r *PostRepository) Count(ctx context.Context, search string) (int, error) {
	query := r.builder.
		Select("COUNT(*)").
		From("blog_blogpage b").
		Join("wagtailcore_page p ON p.id = b.page_ptr_id").
		Where(squirrel.Eq{"p.live": true}).
		Where(squirrel.Expr(publicPredicate))

	if search = strings.TrimSpace(search); search != "" {
		query = query.Where(squirrel.ILike{"p.title": "%" + search + "%"})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count posts sql: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}

	return count, nil
}

// GetByID returns a single published post or repository.ErrNotFound.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*domain.Post, error) {
	stmt, args, err := r.builder.
		Select(postColumns...).
		From("blog_blogpage b").
		Join("wagtailcore_page p ON p.id = b.page_ptr_id").
		Where(squirrel.Eq{"p.id": id, "p.live": true}).
		Where(squirrel.Expr(publicPredicate)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select post sql: %w", err)
	}

	post, err := scanPost(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &post, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (domain.Post, error) {
	var (
		post           domain.Post
		date           sql.NullTime
		firstPublished sql.NullTime
	)

	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Intro,
		&date,
		&post.Slug,
		&post.Body,
		&post.URLPath,
		&firstPublished,
	); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Post{}, err
		}
		return domain.Post{}, fmt.Errorf("scan post: %w", err)
	}

	if date.Valid {
		d := date.Time
		post.Date = &d
	}
	if firstPublished.Valid {
		ts := firstPublished.Time
		post.FirstPublishedAt = &ts
	}

	return post, nil
}

var _ port.PostRepository = (*PostRepository)(nil)
