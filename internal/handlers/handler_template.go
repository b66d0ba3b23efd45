package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/middleware"
)

// templateHandler handles HTTP requests related to entry templates.
type templateHandler struct {
	templateService portssvc.TemplateSvcFacade
}

// newTemplateHandler creates a new templateHandler.
func newTemplateHandler(templateService portssvc.TemplateSvcFacade) *templateHandler {
	return &templateHandler{templateService: templateService}
}

func (h *templateHandler) createTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createTemplate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	template, err := h.templateService.CreateTemplate(c.Request.Context(), req, actingUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTemplateResponse(template))
}

func (h *templateHandler) createTemplateVersion(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createTemplateVersion", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	template, err := h.templateService.CreateTemplateVersion(c.Request.Context(), c.Param("name"), req, actingUser(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToTemplateResponse(template))
}

func (h *templateHandler) listTemplates(c *gin.Context) {
	activeOnly := c.Query("activeOnly") == "true"

	templates, err := h.templateService.ListTemplates(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": dto.ToTemplateResponses(templates)})
}

func (h *templateHandler) getLatestTemplate(c *gin.Context) {
	template, err := h.templateService.GetLatestTemplate(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTemplateResponse(template))
}

func (h *templateHandler) getTemplateVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template version"})
		return
	}

	template, err := h.templateService.GetTemplate(c.Request.Context(), c.Param("name"), version)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToTemplateResponse(template))
}

func (h *templateHandler) setTemplateActive(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template version"})
		return
	}

	var req dto.SetTemplateActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for setTemplateActive", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if err := h.templateService.SetTemplateActive(c.Request.Context(), c.Param("name"), version, *req.Active, actingUser(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// applyVersion reads the optional version query parameter; 0 means latest.
func applyVersion(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("version", "0")
	version, err := strconv.Atoi(raw)
	if err != nil || version < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template version"})
		return 0, false
	}
	return version, true
}

func (h *templateHandler) applyTemplate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	version, ok := applyVersion(c)
	if !ok {
		return
	}

	var req dto.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for applyTemplate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	entryReq, err := h.templateService.ApplyTemplate(c.Request.Context(), c.Param("name"), version, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryReq)
}

func (h *templateHandler) applyTemplateWithFractions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	version, ok := applyVersion(c)
	if !ok {
		return
	}

	var req dto.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for applyTemplateWithFractions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	entryReq, err := h.templateService.ApplyTemplateWithFractions(c.Request.Context(), c.Param("name"), version, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryReq)
}

// registerTemplateRoutes registers template specific routes
func registerTemplateRoutes(group *gin.RouterGroup, templateService portssvc.TemplateSvcFacade) {
	handler := newTemplateHandler(templateService)

	templates := group.Group("/templates")
	{
		templates.POST("", handler.createTemplate)
		templates.GET("", handler.listTemplates)
		templates.GET("/:name", handler.getLatestTemplate)
		templates.POST("/:name/versions", handler.createTemplateVersion)
		templates.GET("/:name/versions/:version", handler.getTemplateVersion)
		templates.PATCH("/:name/versions/:version/active", handler.setTemplateActive)
		templates.POST("/:name/apply", handler.applyTemplate)
		templates.POST("/:name/apply-fractions", handler.applyTemplateWithFractions)
	}
}
