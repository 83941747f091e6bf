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

// taxHandler handles HTTP requests for tax reference data and corporate tax
// filings.
type taxHandler struct {
	taxRateService      portssvc.TaxRateSvcFacade
	corporateTaxService portssvc.CorporateTaxSvcFacade
}

func newTaxHandler(trs portssvc.TaxRateSvcFacade, cts portssvc.CorporateTaxSvcFacade) *taxHandler {
	return &taxHandler{
		taxRateService:      trs,
		corporateTaxService: cts,
	}
}

// registerTaxRoutes registers routes related to tax rates, rules and filings.
func registerTaxRoutes(rg *gin.RouterGroup, taxRateService portssvc.TaxRateSvcFacade, corporateTaxService portssvc.CorporateTaxSvcFacade) {
	h := newTaxHandler(taxRateService, corporateTaxService)

	rg.POST("/tax-rates", h.createTaxRate)
	rg.POST("/corporate-tax-rules", h.createCorporateTaxRule)

	filings := rg.Group("/corporate-tax/filings")
	{
		filings.POST("/accrue", h.accrueTax)
		filings.GET("/:filingID", h.getFilingByID)
		filings.POST("/:filingID/mark-filed", h.markFiled)
		filings.POST("/:filingID/reverse", h.reverseFiling)
	}
}

// createTaxRate godoc
// @Summary Create a document tax rate
// @Description Adds a per-line tax rate for a country and category with temporal validity
// @Tags tax
// @Accept  json
// @Produce  json
// @Param   rate body dto.CreateTaxRateRequest true "Tax rate details"
// @Success 201 {object} domain.TaxRate
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create tax rate"
// @Router /tax-rates [post]
func (h *taxHandler) createTaxRate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateTaxRate", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID))

	rate, err := h.taxRateService.CreateTaxRate(c.Request.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating tax rate", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create tax rate", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tax rate"})
		}
		return
	}

	logger.Info("Tax rate created", slog.String("country", rate.Country), slog.String("category", rate.Category))
	c.JSON(http.StatusCreated, rate)
}

// createCorporateTaxRule godoc
// @Summary Create a corporate tax rule
// @Description Adds the corporate income tax rate (and optional untaxed threshold) for a country
// @Tags tax
// @Accept  json
// @Produce  json
// @Param   rule body dto.CreateCorporateTaxRuleRequest true "Corporate tax rule details"
// @Success 201 {object} domain.CorporateTaxRule
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create corporate tax rule"
// @Router /corporate-tax-rules [post]
func (h *taxHandler) createCorporateTaxRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateCorporateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCorporateTaxRule", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID))

	rule, err := h.taxRateService.CreateCorporateTaxRule(c.Request.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error creating corporate tax rule", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create corporate tax rule", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create corporate tax rule"})
		}
		return
	}

	logger.Info("Corporate tax rule created", slog.String("country", rule.Country))
	c.JSON(http.StatusCreated, rule)
}

// accrueTax godoc
// @Summary Accrue corporate tax for a period
// @Description Computes profit before tax from posted entries, applies the country's rule, and books the accrual entry. Accruing an already-accrued period returns the existing filing unchanged.
// @Tags tax
// @Accept  json
// @Produce  json
// @Param   request body dto.AccrueTaxRequest true "Country and period"
// @Success 200 {object} dto.FilingResponse
// @Failure 400 {object} map[string]string "Invalid period or no rule"
// @Failure 500 {object} map[string]string "Failed to accrue tax"
// @Router /corporate-tax/filings/accrue [post]
func (h *taxHandler) accrueTax(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AccrueTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AccrueTax", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("country", req.Country))
	logger.Info("Received request to accrue corporate tax",
		slog.Time("period_start", req.PeriodStart),
		slog.Time("period_end", req.PeriodEnd))

	filing, err := h.corporateTaxService.AccrueTax(c.Request.Context(), req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPeriod), errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Tax accrual rejected", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNoCorporateRule):
			logger.Warn("No corporate tax rule for period", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to accrue corporate tax", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to accrue tax"})
		}
		return
	}

	logger.Info("Corporate tax filing ready",
		slog.String("filing_id", filing.FilingID),
		slog.String("status", string(filing.Status)),
		slog.String("tax_amount", filing.TaxAmount.String()))
	c.JSON(http.StatusOK, dto.ToFilingResponse(filing))
}

// getFilingByID godoc
// @Summary Get a corporate tax filing
// @Description Retrieves a filing with its accrual and reversal entry links
// @Tags tax
// @Produce  json
// @Param   filingID path string true "Filing ID"
// @Success 200 {object} dto.FilingResponse
// @Failure 404 {object} map[string]string "Filing not found"
// @Failure 500 {object} map[string]string "Failed to retrieve filing"
// @Router /corporate-tax/filings/{filingID} [get]
func (h *taxHandler) getFilingByID(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	filingID := c.Param("filingID")

	filing, err := h.corporateTaxService.GetFilingByID(c.Request.Context(), filingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Filing not found"})
		} else {
			logger.Error("Failed to get filing", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve filing"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToFilingResponse(filing))
}

// markFiled godoc
// @Summary Mark a filing as filed
// @Description Transitions an Accrued filing to Filed once the return is submitted to the authority
// @Tags tax
// @Produce  json
// @Param   filingID path string true "Filing ID"
// @Success 200 {object} dto.FilingResponse
// @Failure 404 {object} map[string]string "Filing not found"
// @Failure 409 {object} map[string]string "Illegal transition"
// @Failure 500 {object} map[string]string "Failed to mark filing"
// @Router /corporate-tax/filings/{filingID}/mark-filed [post]
func (h *taxHandler) markFiled(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	filingID := c.Param("filingID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("filing_id", filingID))

	filing, err := h.corporateTaxService.MarkFiled(c.Request.Context(), filingID, actorID)
	if err != nil {
		filingErrorResponse(c, logger, "mark filing as filed", err)
		return
	}

	logger.Info("Filing marked as filed")
	c.JSON(http.StatusOK, dto.ToFilingResponse(filing))
}

// reverseFiling godoc
// @Summary Reverse a corporate tax filing
// @Description Reverses the accrual entry and marks the filing Reversed, reopening the period for a corrected accrual
// @Tags tax
// @Produce  json
// @Param   filingID path string true "Filing ID"
// @Success 200 {object} dto.FilingResponse
// @Failure 404 {object} map[string]string "Filing not found"
// @Failure 409 {object} map[string]string "Filing already reversed"
// @Failure 500 {object} map[string]string "Failed to reverse filing"
// @Router /corporate-tax/filings/{filingID}/reverse [post]
func (h *taxHandler) reverseFiling(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	filingID := c.Param("filingID")
	actorID := middleware.GetActorFromContext(c)
	logger = logger.With(slog.String("actor_id", actorID), slog.String("filing_id", filingID))

	filing, err := h.corporateTaxService.ReverseFiling(c.Request.Context(), filingID, actorID)
	if err != nil {
		filingErrorResponse(c, logger, "reverse filing", err)
		return
	}

	logger.Info("Filing reversed")
	c.JSON(http.StatusOK, dto.ToFilingResponse(filing))
}

// filingErrorResponse maps filing lifecycle errors to HTTP responses.
func filingErrorResponse(c *gin.Context, logger *slog.Logger, action string, err error) {
	var transitionErr *apperrors.InvalidStateTransitionError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Filing not found"})
	case errors.As(err, &transitionErr):
		logger.Warn("Filing transition rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to "+action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
