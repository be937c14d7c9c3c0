package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// seriesHandler handles HTTP requests related to numbering series.
type seriesHandler struct {
	seriesService portssvc.SeriesSvcFacade
}

// RegisterSeriesRoutes registers routes related to numbering series.
func RegisterSeriesRoutes(rg *gin.RouterGroup, seriesService portssvc.SeriesSvcFacade) {
	h := &seriesHandler{seriesService: seriesService}

	series := rg.Group("/series")
	{
		series.POST("", h.createSeries)
		series.GET("", h.listSeries)
		series.GET("/lookup", h.getSeries)
		series.GET("/preview", h.previewNumber)
		series.POST("/allocate", h.allocateNumber)
		series.POST("/deactivate", h.deactivateSeries)
	}
}

// createSeries godoc
// @Summary Create a numbering series
// @Description Configures a counter for one prefix, invoice type and fiscal year
// @Tags series
// @Accept  json
// @Produce  json
// @Param   series body dto.CreateSeriesRequest true "Series configuration"
// @Success 201 {object} dto.SeriesResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Series already exists"
// @Security BearerAuth
// @Router /series [post]
func (h *seriesHandler) createSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateSeries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	counter, err := h.seriesService.CreateSeries(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create series")
		return
	}
	c.JSON(http.StatusCreated, dto.ToSeriesResponse(counter))
}

// listSeries godoc
// @Summary List numbering series
// @Tags series
// @Produce  json
// @Param   ownerScope query string false "Owner scope"
// @Param   fiscalYear query int false "Fiscal year"
// @Success 200 {array} dto.SeriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /series [get]
func (h *seriesHandler) listSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListSeriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	counters, err := h.seriesService.ListSeries(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list series")
		return
	}
	c.JSON(http.StatusOK, dto.ToListSeriesResponse(counters))
}

// getSeries godoc
// @Summary Get a numbering series
// @Tags series
// @Produce  json
// @Param   prefix query string true "Prefix"
// @Param   seriesType query string true "Series type"
// @Param   fiscalYear query int true "Fiscal year"
// @Param   ownerScope query string false "Owner scope"
// @Success 200 {object} dto.SeriesResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Security BearerAuth
// @Router /series/lookup [get]
func (h *seriesHandler) getSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var q dto.SeriesKeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	counter, err := h.seriesService.GetSeries(c.Request.Context(), q.ToKey())
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve series")
		return
	}
	c.JSON(http.StatusOK, dto.ToSeriesResponse(counter))
}

// previewNumber godoc
// @Summary Preview the next number of a series
// @Description Returns the number the next allocation would get without reserving it
// @Tags series
// @Produce  json
// @Param   prefix query string true "Prefix"
// @Param   seriesType query string true "Series type"
// @Param   fiscalYear query int true "Fiscal year"
// @Param   ownerScope query string false "Owner scope"
// @Success 200 {object} dto.AllocationResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 409 {object} map[string]string "Series inactive or exhausted"
// @Security BearerAuth
// @Router /series/preview [get]
func (h *seriesHandler) previewNumber(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var q dto.SeriesKeyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	alloc, err := h.seriesService.Preview(c.Request.Context(), q.ToKey())
	if err != nil {
		respondError(c, logger, err, "Failed to preview number")
		return
	}
	c.JSON(http.StatusOK, dto.ToAllocationResponse(alloc))
}

// allocateNumber godoc
// @Summary Reserve the next number of a series
// @Tags series
// @Accept  json
// @Produce  json
// @Param   key body dto.SeriesKeyQuery true "Series key"
// @Success 200 {object} dto.AllocationResponse
// @Failure 404 {object} map[string]string "Series not found"
// @Failure 409 {object} map[string]string "Series inactive or exhausted"
// @Security BearerAuth
// @Router /series/allocate [post]
func (h *seriesHandler) allocateNumber(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var q dto.SeriesKeyQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	alloc, err := h.seriesService.AllocateFiscalNumber(c.Request.Context(), q.ToKey())
	if err != nil {
		respondError(c, logger, err, "Failed to allocate number")
		return
	}
	logger.Info("Number allocated", slog.String("user_id", userID), slog.String("fiscal_number", alloc.FiscalNumber))
	c.JSON(http.StatusOK, dto.ToAllocationResponse(alloc))
}

// deactivateSeries godoc
// @Summary Deactivate a numbering series
// @Tags series
// @Accept  json
// @Param   key body dto.SeriesKeyQuery true "Series key"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Series not found"
// @Security BearerAuth
// @Router /series/deactivate [post]
func (h *seriesHandler) deactivateSeries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var q dto.SeriesKeyQuery
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	if err := h.seriesService.DeactivateSeries(c.Request.Context(), q.ToKey(), userID); err != nil {
		respondError(c, logger, err, "Failed to deactivate series")
		return
	}
	c.Status(http.StatusNoContent)
}
