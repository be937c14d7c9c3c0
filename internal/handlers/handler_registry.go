package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/SscSPs/invoice_registry/internal/utils/qr"
	"github.com/gin-gonic/gin"
)

// RegistryRouteConfig carries the settings the registry routes need.
type RegistryRouteConfig struct {
	QRBaseURL  string
	SweepBatch int
	StaleAfter time.Duration
}

// registryHandler handles HTTP requests related to the registry chain and its submission.
type registryHandler struct {
	registryService   portssvc.RegistryReaderSvc
	submissionService portssvc.SubmissionSvcFacade
	cfg               RegistryRouteConfig
}

// RegisterRegistryRoutes registers routes related to registry entries.
func RegisterRegistryRoutes(rg *gin.RouterGroup, registryService portssvc.RegistryReaderSvc, submissionService portssvc.SubmissionSvcFacade, cfg RegistryRouteConfig) {
	h := &registryHandler{registryService: registryService, submissionService: submissionService, cfg: cfg}

	registry := rg.Group("/registry")
	{
		registry.GET("/entries", h.listEntries)
		registry.GET("/entries/:id", h.getEntry)
		registry.GET("/entries/:id/qr", h.getEntryQR)
		registry.POST("/entries/:id/submit", h.submitEntry)
		registry.POST("/entries/:id/release", h.releaseEntry)
		registry.GET("/verify", h.verifyChain)
		registry.POST("/submissions/sweep", h.sweepSubmissions)
	}
}

// listEntries godoc
// @Summary List registry entries of a chain
// @Description Pages through a chain in registry order
// @Tags registry
// @Produce  json
// @Param   scope query string true "Chain scope (issuer tax id)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Continuation token"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /registry/entries [get]
func (h *registryHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.registryService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list registry entries")
		return
	}
	c.JSON(http.StatusOK, page)
}

// getEntry godoc
// @Summary Get a registry entry
// @Tags registry
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.RegistryEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /registry/entries/{id} [get]
func (h *registryHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))

	entry, err := h.registryService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve registry entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegistryEntryResponse(entry))
}

// getEntryQR godoc
// @Summary Get the validation QR code of an entry
// @Tags registry
// @Produce  png
// @Param   id path string true "Entry ID"
// @Param   size query int false "Edge length in pixels"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string "Entry not found"
// @Security BearerAuth
// @Router /registry/entries/{id}/qr [get]
func (h *registryHandler) getEntryQR(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))

	size := qr.DefaultSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 64 || parsed > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 64 and 1024"})
			return
		}
		size = parsed
	}

	entry, err := h.registryService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve registry entry")
		return
	}

	link, err := qr.ValidationURL(h.cfg.QRBaseURL, entry.CanonicalPayload)
	if err != nil {
		logger.Error("Failed to build validation URL", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build QR code"})
		return
	}
	img, err := qr.PNG(link, size)
	if err != nil {
		logger.Error("Failed to render QR code", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build QR code"})
		return
	}
	c.Header("X-Validation-URL", link)
	c.Data(http.StatusOK, "image/png", img)
}

// verifyChain godoc
// @Summary Verify the integrity of a chain
// @Description Recomputes every hash and checks each link against its predecessor
// @Tags registry
// @Produce  json
// @Param   scope query string true "Chain scope (issuer tax id)"
// @Success 200 {object} dto.VerificationResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Security BearerAuth
// @Router /registry/verify [get]
func (h *registryHandler) verifyChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.VerifyChainParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	result, err := h.registryService.VerifyChain(c.Request.Context(), params.Scope)
	if err != nil {
		respondError(c, logger, err, "Failed to verify chain")
		return
	}
	if !result.OK {
		logger.Error("Chain verification failed",
			slog.String("scope", result.ChainScope),
			slog.Int64("registry_number", result.BrokenRegistryNumber),
			slog.String("reason", result.Reason))
	}
	c.JSON(http.StatusOK, dto.ToVerificationResponse(result))
}

// submitEntry godoc
// @Summary Submit an entry to the tax authority
// @Description Runs one submission attempt. Accepted entries are returned unchanged.
// @Tags registry
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.RegistryEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Submission in flight or requires review"
// @Security BearerAuth
// @Router /registry/entries/{id}/submit [post]
func (h *registryHandler) submitEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))

	entry, err := h.submissionService.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to submit registry entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegistryEntryResponse(entry))
}

// releaseEntry godoc
// @Summary Release an entry held for review
// @Description Clears the review flag so the worker retries the entry
// @Tags registry
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.RegistryEntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not held for review"
// @Security BearerAuth
// @Router /registry/entries/{id}/release [post]
func (h *registryHandler) releaseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("entry_id", c.Param("id")))
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.submissionService.ReleaseForRetry(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to release registry entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegistryEntryResponse(entry))
}

// sweepSubmissions godoc
// @Summary Run one submission sweep
// @Description Recovers stale in-flight entries and submits every due entry
// @Tags registry
// @Produce  json
// @Success 200 {object} domain.SweepReport
// @Security BearerAuth
// @Router /registry/submissions/sweep [post]
func (h *registryHandler) sweepSubmissions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	recovered, err := h.submissionService.RecoverStale(c.Request.Context(), h.cfg.StaleAfter)
	if err != nil {
		respondError(c, logger, err, "Failed to recover stale submissions")
		return
	}
	report, err := h.submissionService.SubmitDue(c.Request.Context(), h.cfg.SweepBatch)
	if err != nil {
		respondError(c, logger, err, "Failed to submit due entries")
		return
	}
	report.Recovered = recovered
	c.JSON(http.StatusOK, report)
}
