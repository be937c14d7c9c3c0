package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/gin-gonic/gin"
)

// invoiceHandler handles HTTP requests related to invoices.
type invoiceHandler struct {
	invoiceService  portssvc.InvoiceSvcFacade
	registryService portssvc.RegistrySvcFacade
}

// RegisterInvoiceRoutes registers routes related to invoices.
func RegisterInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade, registryService portssvc.RegistrySvcFacade) {
	h := &invoiceHandler{invoiceService: invoiceService, registryService: registryService}

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("/:id", h.getInvoice)
		invoices.PUT("/:id", h.updateInvoice)
		invoices.POST("/:id/finalize", h.finalizeInvoice)
		invoices.POST("/:id/register", h.registerInvoice)
		invoices.GET("/:id/registration", h.getRegistration)
		invoices.POST("/:id/cancel", h.cancelInvoice)
	}
}

// createInvoice godoc
// @Summary Create a draft invoice
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Series not found"
// @Security BearerAuth
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	inv, err := h.invoiceService.CreateDraft(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(inv))
}

// getInvoice godoc
// @Summary Get an invoice by ID
// @Tags invoices
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *invoiceHandler) getInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))

	inv, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// updateInvoice godoc
// @Summary Update a draft invoice
// @Description Replaces the fiscal fields. Registered invoices are immutable.
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Param   invoice body dto.UpdateInvoiceRequest true "Fiscal fields"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice is immutable"
// @Security BearerAuth
// @Router /invoices/{id} [put]
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	inv, err := h.invoiceService.UpdateDraft(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update invoice")
		return
	}
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(inv))
}

// finalizeInvoice godoc
// @Summary Issue and register an invoice
// @Description Allocates the fiscal number, appends the registry entry and freezes the invoice
// @Tags invoices
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Success 200 {object} dto.FinalizeInvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Already registered or series exhausted"
// @Failure 503 {object} map[string]string "Chain busy, retry"
// @Security BearerAuth
// @Router /invoices/{id}/finalize [post]
func (h *invoiceHandler) finalizeInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	inv, entry, err := h.invoiceService.Finalize(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to finalize invoice")
		return
	}
	c.JSON(http.StatusOK, dto.FinalizeInvoiceResponse{
		Invoice: dto.ToInvoiceResponse(inv),
		Entry:   dto.ToRegistryEntryResponse(entry),
	})
}

// registerInvoice godoc
// @Summary Register an issued invoice
// @Description Appends the registration entry of an invoice already marked ISSUED. Drafts go through finalize.
// @Tags invoices
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Success 201 {object} dto.RegistryEntryResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Already registered or not final"
// @Failure 503 {object} map[string]string "Chain busy, retry"
// @Security BearerAuth
// @Router /invoices/{id}/register [post]
func (h *invoiceHandler) registerInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.registryService.Register(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to register invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRegistryEntryResponse(entry))
}

// getRegistration godoc
// @Summary Get the registration entry of an invoice
// @Tags invoices
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Success 200 {object} dto.RegistryEntryResponse
// @Failure 404 {object} map[string]string "Invoice not registered"
// @Security BearerAuth
// @Router /invoices/{id}/registration [get]
func (h *invoiceHandler) getRegistration(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))

	entry, err := h.registryService.GetEntryByInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve registration")
		return
	}
	c.JSON(http.StatusOK, dto.ToRegistryEntryResponse(entry))
}

// cancelInvoice godoc
// @Summary Cancel a registered invoice
// @Description Appends a cancellation entry; the original registration is kept
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   id path string true "Invoice ID"
// @Param   cancel body dto.CancelInvoiceRequest true "Cancellation reason"
// @Success 201 {object} dto.RegistryEntryResponse
// @Failure 400 {object} map[string]string "Invoice not registered"
// @Failure 409 {object} map[string]string "Already cancelled"
// @Security BearerAuth
// @Router /invoices/{id}/cancel [post]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("invoice_id", c.Param("id")))
	var req dto.CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, ok := requireUser(c, logger)
	if !ok {
		return
	}

	entry, err := h.registryService.Cancel(c.Request.Context(), c.Param("id"), req.Reason, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel invoice")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRegistryEntryResponse(entry))
}
