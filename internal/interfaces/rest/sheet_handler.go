package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sheetlens/sheetlens/internal/application/services"
	"github.com/sheetlens/sheetlens/internal/domain/models"
)

// SheetHandler serves the sheet acquisition and view endpoints
type SheetHandler struct {
	svc *services.ServiceManager
}

// NewSheetHandler creates a new SheetHandler
func NewSheetHandler(svc *services.ServiceManager) *SheetHandler {
	return &SheetHandler{svc: svc}
}

// LoadRequest carries the single free-form input: a Sheets URL, a Drive
// sharing URL, or a bare document ID
type LoadRequest struct {
	URL string `json:"url" binding:"required"`
}

// Load handles POST /api/sheets/load
func (h *SheetHandler) Load(c *gin.Context) {
	var req LoadRequest
	if !BindJSON(c, &req) {
		return
	}

	result, err := h.svc.Session.Load(c.Request.Context(), req.URL)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Current handles GET /api/sheets/current
// Query params: system, milestone, q (search text), filter_expr
func (h *SheetHandler) Current(c *gin.Context) {
	state := models.FilterState{
		System:     c.Query("system"),
		Milestone:  c.Query("milestone"),
		SearchText: c.Query("q"),
	}
	filterExpr := c.Query("filter_expr")

	view, err := h.svc.Session.View(state, filterExpr)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Reset handles POST /api/sheets/reset: clears the session state and the
// persisted last URL
func (h *SheetHandler) Reset(c *gin.Context) {
	if err := h.svc.Session.Reset(c.Request.Context()); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "view cleared"})
}

// LastURL handles GET /api/sheets/last-url for re-display on page load
func (h *SheetHandler) LastURL(c *gin.Context) {
	HandleGetEnvelope(c, "url", func() (interface{}, error) {
		return h.svc.Session.LastURL(c.Request.Context())
	})
}
