package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/pagination"
	"pricebook/internal/services"
)

// CustomerHandler handles customer directory requests.
type CustomerHandler struct {
	customerService services.CustomerServicer
	auditService    services.AuditServicer
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService services.CustomerServicer, auditService services.AuditServicer) *CustomerHandler {
	return &CustomerHandler{customerService: customerService, auditService: auditService}
}

// CreateCustomerRequest represents the request payload for creating a customer.
type CreateCustomerRequest struct {
	Code            string `json:"code" binding:"required,min=1,max=50"`
	Name            string `json:"name" binding:"required,min=1,max=200"`
	CustomerGroupID string `json:"customer_group_id" binding:"max=100"`
	PricingPattern  string `json:"pricing_pattern" binding:"required,min=1,max=100"`
	Currency        string `json:"currency" binding:"required,iso4217"`
}

// CreateCustomer creates a customer.
// @Summary     Create a customer
// @Tags        customers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateCustomerRequest true "Customer details"
// @Success     201 {object} models.Customer
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Code already exists"
// @Router      /customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	customer, err := h.customerService.Create(req.Code, req.Name, req.CustomerGroupID, req.PricingPattern, req.Currency)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_CUSTOMER", "customer", customer.ID, c.ClientIP(),
		map[string]interface{}{"code": req.Code, "customer_group_id": req.CustomerGroupID})

	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// GetCustomer returns a customer by ID.
// @Summary     Get a customer
// @Tags        customers
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Customer ID"
// @Success     200 {object} models.Customer
// @Failure     404 {object} ErrorResponse "Customer not found"
// @Router      /customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	customer, err := h.customerService.GetByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// ListCustomers lists customers.
// @Summary     List customers
// @Tags        customers
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Customer]
// @Router      /customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.customerService.List(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
