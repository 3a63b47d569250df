package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/domain"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PostSummary is the compact post view returned by listings.
type PostSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Intro            string  `json:"intro"`
	Date             *string `json:"date"`
	Slug             string  `json:"slug"`
	URLPath          string  `json:"url_path"`
	FirstPublishedAt *string `json:"first_published_at"`
}

// PostDetail extends the summary with the rendered body.
type PostDetail struct {
	PostSummary
	Body string `json:"body"`
}

// NewPostSummary converts a domain post into its listing representation.
func NewPostSummary(post domain.Post) PostSummary {
	summary := PostSummary{
		ID:      post.ID,
		Title:   post.Title,
		Intro:   post.Intro,
		Slug:    post.Slug,
		URLPath: post.URLPath,
	}

	if post.Date != nil {
		date := post.DateString()
		summary.Date = &date
	}

	if post.FirstPublishedAt != nil {
		published := post.FirstPublishedAt.UTC().Format(time.RFC3339)
		summary.FirstPublishedAt = &published
	}

	return summary
}

// NewPostDetail converts a domain post into its detail representation.
func NewPostDetail(post domain.Post) PostDetail {
	return PostDetail{
		PostSummary: NewPostSummary(post),
		Body:        post.Body,
	}
}

// ListMeta carries per-request diagnostics alongside the listing payload.
type ListMeta struct {
	ExecutionTime float64 `json:"execution_time"`
	SearchQuery   string  `json:"search_query,omitempty"`
	FromCache     bool    `json:"from_cache"`
}

// PostListResponse is the listing envelope.
type PostListResponse struct {
	Posts      []PostSummary      `json:"posts"`
	Pagination usecase.Pagination `json:"pagination"`
	Meta       ListMeta           `json:"meta"`
}

// CacheStatsResponse reports page cache effectiveness counters.
type CacheStatsResponse struct {
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	CurrentSize int     `json:"current_size"`
	MaxSize     int     `json:"max_size"`
}

// PostCountResponse reports the number of published posts.
type PostCountResponse struct {
	Count int `json:"count"`
}

// PostStatsResponse is the stats endpoint envelope.
type PostStatsResponse struct {
	TotalPosts int                `json:"total_posts"`
	Cache      CacheStatsResponse `json:"cache"`
}

// PostsHealthResponse reports read-path health with a content count.
type PostsHealthResponse struct {
	Status     string  `json:"status"`
	TotalPosts int     `json:"total_posts"`
	Timestamp  float64 `json:"timestamp"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// CheckoutSessionRequest is the payload for checkout session creation.
type CheckoutSessionRequest struct {
	// Numeric fields skip binding validation so a zero amount reaches the
	// service and maps to its own error message.
	ArticleID    int64  `json:"article_id"`
	Amount       int64  `json:"amount"`
	ArticleTitle string `json:"article_title" binding:"required"`
	SuccessURL   string `json:"success_url" binding:"required"`
	CancelURL    string `json:"cancel_url" binding:"required"`
}

// CheckoutSessionResponse returns the hosted checkout location.
type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// WebhookAckResponse acknowledges a processed webhook delivery.
type WebhookAckResponse struct {
	Status string `json:"status"`
}
