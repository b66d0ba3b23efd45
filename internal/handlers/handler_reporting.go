package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/dto"
)

// reportingHandler handles HTTP requests for balance reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(reportingService portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: reportingService}
}

// asOfParam reads the optional asOf query parameter (YYYY-MM-DD or RFC 3339),
// defaulting to now.
func asOfParam(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOf")
	if raw == "" {
		return time.Now().UTC(), true
	}
	if asOf, err := time.Parse("2006-01-02", raw); err == nil {
		return asOf, true
	}
	if asOf, err := time.Parse(time.RFC3339, raw); err == nil {
		return asOf, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asOf date, expected YYYY-MM-DD or RFC 3339"})
	return time.Time{}, false
}

func (h *reportingHandler) getBalance(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'path' is required"})
		return
	}
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	balance, err := h.reportingService.BalanceAsOf(c.Request.Context(), path, asOf)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AccountPath: path,
		AsOf:        asOf,
		Balance:     balance,
	})
}

func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	asOf, ok := asOfParam(c)
	if !ok {
		return
	}

	rows, err := h.reportingService.TrialBalance(c.Request.Context(), asOf)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTrialBalanceResponse(asOf, rows))
}

// registerReportingRoutes registers reporting specific routes
func registerReportingRoutes(group *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	handler := newReportingHandler(reportingService)

	reports := group.Group("/reports")
	{
		reports.GET("/balance", handler.getBalance)
		reports.GET("/trial-balance", handler.getTrialBalance)
	}
}
