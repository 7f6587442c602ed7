package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/pagination"
	"pricebook/internal/services"
)

// CalculationHandler handles price calculation requests.
type CalculationHandler struct {
	calculationService services.CalculationServicer
	auditService       services.AuditServicer
}

// NewCalculationHandler creates a new CalculationHandler.
func NewCalculationHandler(calculationService services.CalculationServicer, auditService services.AuditServicer) *CalculationHandler {
	return &CalculationHandler{calculationService: calculationService, auditService: auditService}
}

// CalculateRequest represents the request payload for a price calculation.
type CalculateRequest struct {
	CustomerID     string          `json:"customer_id" binding:"required,uuid"`
	ProductID      string          `json:"product_id" binding:"required,uuid"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	TargetCurrency string          `json:"target_currency" binding:"required,iso4217"`
}

// Calculate runs a price calculation and persists its snapshot.
// @Summary     Calculate a selling price
// @Description Compose the product's BOM cost, convert to the target currency, apply the customer's selling factor, and persist the full audit trail as an immutable snapshot
// @Tags        calculations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CalculateRequest true "Calculation input"
// @Success     201 {object} models.PriceCalculationSnapshot "Snapshot"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Customer or product not found"
// @Failure     422 {object} ErrorResponse "Missing price, rate, or factor"
// @Router      /calculations [post]
func (h *CalculationHandler) Calculate(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshot, err := h.calculationService.Calculate(req.CustomerID, req.ProductID, req.Quantity, req.TargetCurrency, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CALCULATE_PRICE", "calculation", snapshot.ID, c.ClientIP(),
		map[string]interface{}{
			"customer_id":     req.CustomerID,
			"product_id":      req.ProductID,
			"quantity":        req.Quantity,
			"target_currency": req.TargetCurrency,
		})

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// GetSnapshot returns a stored calculation snapshot with all lines.
// @Summary     Get a calculation snapshot
// @Tags        calculations
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Snapshot ID"
// @Success     200 {object} models.PriceCalculationSnapshot
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Router      /calculations/{id} [get]
func (h *CalculationHandler) GetSnapshot(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.calculationService.Get(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// ListSnapshots lists calculation snapshots, newest first.
// @Summary     List calculation snapshots
// @Tags        calculations
// @Produce     json
// @Security    BearerAuth
// @Param       customer_id query string false "Filter by customer"
// @Param       product_id  query string false "Filter by product"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PriceCalculationSnapshot]
// @Router      /calculations [get]
func (h *CalculationHandler) ListSnapshots(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.SnapshotFilter
	if v := c.Query("customer_id"); v != "" {
		filter.CustomerID = &v
	}
	if v := c.Query("product_id"); v != "" {
		filter.ProductID = &v
	}

	result, err := h.calculationService.List(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
