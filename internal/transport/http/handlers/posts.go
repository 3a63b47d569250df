package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/repository"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/usecase"
)

// PostHandler exposes the blog read path.
type PostHandler struct {
	service *usecase.PostService
	logger  *zap.Logger
}

// NewPostHandler builds a post handler instance.
func NewPostHandler(service *usecase.PostService, logger *zap.Logger) *PostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostHandler{service: service, logger: logger}
}

var listErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidLimit, Status: http.StatusBadRequest, Message: "limit must be between 1 and 100"},
	{Err: usecase.ErrInvalidOffset, Status: http.StatusBadRequest, Message: "offset must not be negative"},
	{Err: usecase.ErrInvalidPage, Status: http.StatusBadRequest, Message: "page must be 1 or greater"},
}

// List returns a page of published posts.
func (h *PostHandler) List(c *gin.Context) {
	start := time.Now()

	query, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		return
	}

	result, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		RespondWithMappedError(c, err, listErrorCases, http.StatusInternalServerError, "Internal server error")
		return
	}

	posts := make([]PostSummary, 0, len(result.Posts))
	for _, post := range result.Posts {
		posts = append(posts, NewPostSummary(post))
	}

	c.JSON(http.StatusOK, PostListResponse{
		Posts:      posts,
		Pagination: result.Pagination,
		Meta: ListMeta{
			ExecutionTime: time.Since(start).Seconds(),
			SearchQuery:   query.Search,
			FromCache:     result.FromCache,
		},
	})
}

// Get returns one published post by id.
func (h *PostHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid post id"))
		return
	}

	post, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "Post not found"},
		}, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, NewPostDetail(*post))
}

// Count returns the number of published posts, for client-side pagination.
func (h *PostHandler) Count(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Internal server error"))
		return
	}

	c.JSON(http.StatusOK, PostCountResponse{Count: total})
}

// Stats reports the published post count and cache counters.
func (h *PostHandler) Stats(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Internal server error"))
		return
	}

	stats := h.service.CacheStats()

	c.JSON(http.StatusOK, PostStatsResponse{
		TotalPosts: total,
		Cache: CacheStatsResponse{
			Hits:        stats.Hits,
			Misses:      stats.Misses,
			HitRate:     stats.HitRate(),
			CurrentSize: stats.CurrentSize,
			MaxSize:     stats.MaxSize,
		},
	})
}

// Health verifies the read path end to end by counting published posts.
func (h *PostHandler) Health(c *gin.Context) {
	total, err := h.service.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("posts health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, PostsHealthResponse{
			Status:    "unhealthy",
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		})
		return
	}

	c.JSON(http.StatusOK, PostsHealthResponse{
		Status:     "healthy",
		TotalPosts: total,
		Timestamp:  float64(time.Now().UnixNano()) / float64(time.Second),
	})
}

// ClearCache drops every cached listing page.
func (h *PostHandler) ClearCache(c *gin.Context) {
	h.service.ClearCache()
	c.JSON(http.StatusOK, MessageResponse{Message: "Cache cleared successfully"})
}

func parseListQuery(c *gin.Context) (usecase.ListQuery, error) {
	query := usecase.ListQuery{Search: c.Query("search")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return usecase.ListQuery{}, usecase.ErrInvalidLimit
		}
		query.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return usecase.ListQuery{}, usecase.ErrInvalidOffset
		}
		query.Offset = offset
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return usecase.ListQuery{}, usecase.ErrInvalidPage
		}
		query.Page = page
	}

	return query, nil
}
