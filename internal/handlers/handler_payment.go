package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/corefin/accounting_core_app/internal/apperrors"
	portssvc "github.com/corefin/accounting_core_app/internal/core/ports/services"
	"github.com/corefin/accounting_core_app/internal/core/services"
	"github.com/corefin/accounting_core_app/internal/dto"
	"github.com/corefin/accounting_core_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// paymentHandler handles HTTP requests for payments and allocations.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{
		paymentService: ps,
	}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("", h.listPayments)
		payments.GET("/:paymentID", h.getPaymentByID)
		payments.POST("/:paymentID/post", h.postPayment)
	}
}

// paymentValidationFailed reports whether a payment error is a caller mistake.
func paymentValidationFailed(err error) bool {
	var overAlloc *apperrors.OverAllocationError
	return errors.Is(err, services.ErrPaymentAmountNotPositive) ||
		errors.Is(err, services.ErrDuplicateAllocation) ||
		errors.Is(err, services.ErrAllocationsExceedPayment) ||
		errors.Is(err, services.ErrInvoiceKindMismatch) ||
		errors.Is(err, services.ErrInvoiceNotPosted) ||
		errors.Is(err, apperrors.ErrValidation) ||
		errors.As(err, &overAlloc)
}

// createPayment godoc
// @Summary Create a payment with allocations
// @Description Validates allocations against invoice outstanding balances under row locks, persists the payment, and advances each invoice's payment status
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   payment body dto.CreatePaymentRequest true "Payment details"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input or over-allocation"
// @Failure 404 {object} map[string]string "Allocated invoice not found"
// @Failure 409 {object} map[string]string "Concurrent allocation conflict, retry"
// @Failure 500 {object} map[string]string "Failed to create payment"
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID))
	logger.Info("Received request to create payment",
		slog.String("party_ref", req.PartyRef),
		slog.Int("allocations", len(req.Allocations)))

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), req, actorID)
	if err != nil {
		var conflictErr *apperrors.ConcurrentAllocationConflictError
		switch {
		case errors.As(err, &conflictErr):
			logger.Warn("Concurrent allocation conflict", slog.String("invoice_id", conflictErr.InvoiceID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case paymentValidationFailed(err):
			logger.Warn("Payment rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Allocated invoice not found", slog.String("error", err.Error()))
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		}
		return
	}

	logger.Info("Payment created successfully", slog.String("payment_id", payment.PaymentID))
	c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

// getPaymentByID godoc
// @Summary Get a payment
// @Description Retrieves a payment with its allocations
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 500 {object} map[string]string "Failed to retrieve payment"
// @Router /payments/{paymentID} [get]
func (h *paymentHandler) getPaymentByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		} else {
			logger.Error("Failed to get payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve payment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// listPayments godoc
// @Summary List payments
// @Description Retrieves a token-paginated list of payments, newest first
// @Tags payments
// @Produce  json
// @Param   limit query int false "Page size (default 20)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 500 {object} map[string]string "Failed to list payments"
// @Router /payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.paymentService.ListPayments(c.Request.Context(), params)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == 400 {
			c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Message})
			return
		}
		logger.Error("Failed to list payments", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// postPayment godoc
// @Summary Post a payment to the ledger
// @Description Books the payment entry, realizing FX gain or loss on each cross-currency allocation at the payment-date rate
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PostPaymentResult
// @Failure 400 {object} map[string]string "Missing rate or FX account mapping"
// @Failure 404 {object} map[string]string "Payment not found"
// @Failure 409 {object} map[string]string "Payment already posted"
// @Failure 500 {object} map[string]string "Failed to post payment"
// @Router /payments/{paymentID}/post [post]
func (h *paymentHandler) postPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("payment_id", paymentID))

	result, err := h.paymentService.PostPayment(c.Request.Context(), paymentID, actorID)
	if err != nil {
		var transitionErr *apperrors.InvalidStateTransitionError
		var rateErr *apperrors.RateNotFoundError
		var fxErr *apperrors.MissingFXAccountError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		case errors.As(err, &transitionErr):
			logger.Warn("Payment posting rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &rateErr), errors.As(err, &fxErr):
			logger.Warn("Payment posting misconfigured", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to post payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post payment"})
		}
		return
	}

	logger.Info("Payment posted",
		slog.String("journal_entry_id", result.JournalEntryID),
		slog.String("fx_gain_loss", result.FXGainLoss.String()))
	c.JSON(http.StatusOK, result)
}
