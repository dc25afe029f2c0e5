package http

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/smartsave/backend/internal/domain"
	"github.com/smartsave/backend/internal/infrastructure/store"
	"github.com/smartsave/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	aggregator    *usecase.Aggregator
	catalogPath   string
	searchTimeout time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(aggregator *usecase.Aggregator, catalogPath string, searchTimeout time.Duration) *Handler {
	if searchTimeout <= 0 {
		searchTimeout = 60 * time.Second
	}
	return &Handler{
		aggregator:    aggregator,
		catalogPath:   catalogPath,
		searchTimeout: searchTimeout,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	_, err := os.Stat(h.catalogPath)
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       "smartsave-backend",
		"catalog_found": err == nil,
		"catalog_path":  h.catalogPath,
	})
}

// Search runs the live cross-retailer search.
// GET /api/search?q=milk&province=AB&refresh=true&page=1&size=20&sort=price-asc
func (h *Handler) Search(c *gin.Context) {
	request := domain.SearchRequest{
		Query:        strings.TrimSpace(c.Query("q")),
		Region:       c.Query("province"),
		ForceRefresh: parseBool(c.Query("refresh")),
		Sort:         domain.ParseSortMode(c.Query("sort")),
		Page:         parseInt(c.Query("page")),
		PageSize:     parseInt(c.Query("size")),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.searchTimeout)
	defer cancel()

	result, err := h.aggregator.Search(ctx, request)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Catalog serves the prebuilt canonical catalog, optionally filtered by a
// title substring and truncated to size. A missing or empty catalog yields
// an empty list, not an error.
// GET /api/catalog?q=milk&size=25
func (h *Handler) Catalog(c *gin.Context) {
	records, err := store.ReadRecords(h.catalogPath)
	if err != nil {
		records = nil
	}

	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	items := make([]domain.ProductRecord, 0, len(records))
	for _, rec := range records {
		if !rec.HasPrice() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(rec.Title), q) {
			continue
		}
		items = append(items, rec)
	}

	total := len(items)
	if size := parseInt(c.Query("size")); size > 0 && size < len(items) {
		items = items[:size]
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func parseBool(s string) bool {
	return s == "1" || strings.EqualFold(s, "true")
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
