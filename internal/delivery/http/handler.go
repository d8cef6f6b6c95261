package http

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ofertas-ar/backend/internal/domain"
	"github.com/ofertas-ar/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	feed    domain.SourceFeed
	history *usecase.HistoryService
}

// NewHandler creates a new HTTP handler
func NewHandler(feed domain.SourceFeed, history *usecase.HistoryService) *Handler {
	return &Handler{
		feed:    feed,
		history: history,
	}
}

// searchRequest is the body of POST /buscar
type searchRequest struct {
	Query string `json:"query"`
}

// historialStatus reports the persistence outcome of one search.
type historialStatus struct {
	Guardado    bool   `json:"guardado"`
	Backend     string `json:"backend"`
	CapturadoEn string `json:"capturado_en"`
}

// searchResponse is the body of a successful POST /buscar
type searchResponse struct {
	*domain.SearchResults
	Historial historialStatus `json:"historial"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ofertas-backend",
		"version": "1.0.0",
	})
}

// Buscar runs a search across all sources, deduplicates the listings, folds
// the observation into price history, and returns the combined results with
// per-product change data attached.
func (h *Handler) Buscar(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidQuery.Error()})
		return
	}

	ctx := c.Request.Context()
	results, err := h.feed.SearchAll(ctx, query)
	if err != nil {
		log.Printf("[API] search failed for %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	// Collapse duplicates within each source, then across sources.
	results.PreciosGamer = usecase.Deduplicate(results.PreciosGamer)
	results.HardGamers = usecase.Deduplicate(results.HardGamers)

	todos := make([]domain.Product, 0, len(results.PreciosGamer)+len(results.HardGamers))
	todos = append(todos, results.PreciosGamer...)
	todos = append(todos, results.HardGamers...)
	todos = usecase.Deduplicate(todos)
	usecase.SortByPrice(todos)

	snapshot := h.history.RecordSnapshot(ctx, query, todos)
	usecase.AttachChanges(todos, snapshot.Changes)
	usecase.AttachChanges(results.PreciosGamer, snapshot.Changes)
	usecase.AttachChanges(results.HardGamers, snapshot.Changes)

	results.Todos = todos
	results.Total = len(todos)

	c.JSON(http.StatusOK, searchResponse{
		SearchResults: results,
		Historial: historialStatus{
			Guardado:    snapshot.Saved,
			Backend:     snapshot.Backend,
			CapturadoEn: snapshot.CapturedAt,
		},
	})
}

// Historial returns tracked products, optionally filtered by ?query= and
// bounded by ?limit=.
func (h *Handler) Historial(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	page := h.history.GetHistory(c.Request.Context(), query, limit)
	c.JSON(http.StatusOK, page)
}
