package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	"github.com/corefin/accounting_core_app/internal/core/domain"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/core/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/corefin/accounting_core_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// invoiceHandler handles HTTP requests for the invoice lifecycle.
type invoiceHandler struct {
	invoiceService portssvc.InvoiceSvcFacade
}

func newInvoiceHandler(is portssvc.InvoiceSvcFacade) *invoiceHandler {
	return &invoiceHandler{
		invoiceService: is,
	}
}

// registerInvoiceRoutes registers routes related to invoices.
func registerInvoiceRoutes(rg *gin.RouterGroup, invoiceService portssvc.InvoiceSvcFacade) {
	h := newInvoiceHandler(invoiceService)

	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.createInvoice)
		invoices.GET("", h.listInvoices)
		invoices.GET("/:invoiceID", h.getInvoiceByID)
		invoices.PUT("/:invoiceID", h.updateInvoice)
		invoices.DELETE("/:invoiceID", h.deleteInvoice)
		invoices.POST("/:invoiceID/submit", h.submitInvoice)
		invoices.POST("/:invoiceID/approve", h.approveInvoice)
		invoices.POST("/:invoiceID/reject", h.rejectInvoice)
		invoices.POST("/:invoiceID/post", h.postInvoice)
		invoices.POST("/:invoiceID/cancel", h.cancelInvoice)
	}
}

// invoiceErrorResponse maps invoice service errors to HTTP responses shared by
// most invoice endpoints.
func invoiceErrorResponse(c *gin.Context, logger *slog.Logger, action string, err error) {
	var transitionErr *apperrors.InvalidStateTransitionError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
	case errors.As(err, &transitionErr):
		logger.Warn("Invoice state transition rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, services.ErrInvoiceMinLines),
		errors.Is(err, services.ErrInvoiceZeroTotal):
		logger.Warn("Invoice request rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvoiceHasPaid):
		logger.Warn("Invoice cancellation rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

// createInvoice godoc
// @Summary Create a draft invoice
// @Description Creates a receivable or payable invoice in Draft with its lines
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create invoice"
// @Router /invoices [post]
func (h *invoiceHandler) createInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID))
	logger.Info("Received request to create invoice", slog.String("party_ref", req.PartyRef))

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req, actorID)
	if err != nil {
		invoiceErrorResponse(c, logger, "create invoice", err)
		return
	}

	logger.Info("Invoice created successfully", slog.String("invoice_id", invoice.InvoiceID))
	c.JSON(http.StatusCreated, dto.ToInvoiceResponse(invoice, dto.InvoiceTotals{}))
}

// getInvoiceByID godoc
// @Summary Get an invoice
// @Description Retrieves an invoice with its lines and derived totals (subtotal, tax, paid, outstanding)
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 500 {object} map[string]string "Failed to retrieve invoice"
// @Router /invoices/{invoiceID} [get]
func (h *invoiceHandler) getInvoiceByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")

	invoice, totals, err := h.invoiceService.GetInvoiceByID(c.Request.Context(), invoiceID)
	if err != nil {
		invoiceErrorResponse(c, logger, "retrieve invoice", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, totals))
}

// listInvoices godoc
// @Summary List invoices
// @Description Retrieves a token-paginated list of invoices, newest issue date first
// @Tags invoices
// @Produce  json
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 500 {object} map[string]string "Failed to list invoices"
// @Router /invoices [get]
func (h *invoiceHandler) listInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListInvoicesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == 400 {
			c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
			return
		}
		logger.Error("Failed to list invoices", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list invoices"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// updateInvoice godoc
// @Summary Update an editable invoice
// @Description Replaces header fields and lines of a Draft or Rejected invoice
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   invoice body dto.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice not editable"
// @Failure 500 {object} map[string]string "Failed to update invoice"
// @Router /invoices/{invoiceID} [put]
func (h *invoiceHandler) updateInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")

	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("invoice_id", invoiceID))

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), invoiceID, req, actorID)
	if err != nil {
		invoiceErrorResponse(c, logger, "update invoice", err)
		return
	}

	logger.Info("Invoice updated successfully")
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, dto.InvoiceTotals{}))
}

// deleteInvoice godoc
// @Summary Delete a draft invoice
// @Description Removes a Draft invoice entirely; any other state is rejected
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 204 "Deleted"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice not in Draft"
// @Failure 500 {object} map[string]string "Failed to delete invoice"
// @Router /invoices/{invoiceID} [delete]
func (h *invoiceHandler) deleteInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("invoice_id", invoiceID))

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), invoiceID, actorID); err != nil {
		invoiceErrorResponse(c, logger, "delete invoice", err)
		return
	}

	logger.Info("Invoice deleted")
	c.Status(http.StatusNoContent)
}

// approvalAction binds the optional comment body shared by the workflow endpoints.
func approvalAction(c *gin.Context) dto.ApprovalActionRequest {
	var req dto.ApprovalActionRequest
	// Body is optional for workflow actions
	_ = c.ShouldBindJSON(&req)
	return req
}

// submitInvoice godoc
// @Summary Submit an invoice for approval
// @Description Moves a Draft or Rejected invoice to PendingApproval
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   action body dto.ApprovalActionRequest false "Optional comments"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Failure 500 {object} map[string]string "Failed to submit invoice"
// @Router /invoices/{invoiceID}/submit [post]
func (h *invoiceHandler) submitInvoice(c *gin.Context) {
	h.approvalTransition(c, "submit invoice", h.invoiceService.SubmitInvoice)
}

// approveInvoice godoc
// @Summary Approve an invoice
// @Description Moves a PendingApproval invoice to Approved, unlocking posting
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   action body dto.ApprovalActionRequest false "Optional comments"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Failure 500 {object} map[string]string "Failed to approve invoice"
// @Router /invoices/{invoiceID}/approve [post]
func (h *invoiceHandler) approveInvoice(c *gin.Context) {
	h.approvalTransition(c, "approve invoice", h.invoiceService.ApproveInvoice)
}

// rejectInvoice godoc
// @Summary Reject an invoice
// @Description Moves a PendingApproval invoice back to Rejected for rework
// @Tags invoices
// @Accept  json
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Param   action body dto.ApprovalActionRequest false "Optional comments"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Failure 500 {object} map[string]string "Failed to reject invoice"
// @Router /invoices/{invoiceID}/reject [post]
func (h *invoiceHandler) rejectInvoice(c *gin.Context) {
	h.approvalTransition(c, "reject invoice", h.invoiceService.RejectInvoice)
}

func (h *invoiceHandler) approvalTransition(
	c *gin.Context,
	action string,
	transition func(ctx context.Context, invoiceID string, req dto.ApprovalActionRequest, userID string) (*domain.Invoice, error),
) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("invoice_id", invoiceID))

	invoice, err := transition(c.Request.Context(), invoiceID, approvalAction(c), actorID)
	if err != nil {
		invoiceErrorResponse(c, logger, action, err)
		return
	}

	logger.Info("Invoice approval transition applied", slog.String("approval_status", string(invoice.ApprovalStatus)))
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, dto.InvoiceTotals{}))
}

// postInvoice godoc
// @Summary Post an approved invoice to the ledger
// @Description Applies per-line tax, converts to the base currency at the issue-date rate, and books the balanced journal entry
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.PostInvoiceResult
// @Failure 400 {object} map[string]string "Zero total or missing rate"
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice not approved or already posted"
// @Failure 500 {object} map[string]string "Failed to post invoice"
// @Router /invoices/{invoiceID}/post [post]
func (h *invoiceHandler) postInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("invoice_id", invoiceID))

	result, err := h.invoiceService.PostInvoice(c.Request.Context(), invoiceID, actorID)
	if err != nil {
		var rateErr *apperrors.RateNotFoundError
		if errors.As(err, &rateErr) {
			logger.Warn("No exchange rate for invoice posting", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		invoiceErrorResponse(c, logger, "post invoice", err)
		return
	}

	logger.Info("Invoice posted", slog.String("journal_entry_id", result.JournalEntryID))
	c.JSON(http.StatusOK, result)
}

// cancelInvoice godoc
// @Summary Cancel an invoice
// @Description Cancels an unpaid invoice; posted invoices get a reversing journal entry
// @Tags invoices
// @Produce  json
// @Param   invoiceID path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} map[string]string "Invoice not found"
// @Failure 409 {object} map[string]string "Invoice has recorded payments"
// @Failure 500 {object} map[string]string "Failed to cancel invoice"
// @Router /invoices/{invoiceID}/cancel [post]
func (h *invoiceHandler) cancelInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	invoiceID := c.Param("invoiceID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("invoice_id", invoiceID))

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), invoiceID, actorID)
	if err != nil {
		invoiceErrorResponse(c, logger, "cancel invoice", err)
		return
	}

	logger.Info("Invoice cancelled")
	c.JSON(http.StatusOK, dto.ToInvoiceResponse(invoice, dto.InvoiceTotals{}))
}
