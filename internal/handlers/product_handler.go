package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/pagination"
	"pricebook/internal/services"
)

// ProductHandler handles product, raw material, and BOM requests.
type ProductHandler struct {
	productService services.ProductServicer
	auditService   services.AuditServicer
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService services.ProductServicer, auditService services.AuditServicer) *ProductHandler {
	return &ProductHandler{productService: productService, auditService: auditService}
}

// CreateProductRequest represents the request payload for creating a product.
type CreateProductRequest struct {
	Code string `json:"code" binding:"required,min=1,max=50"`
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// BOMLineRequest is one line of a BOM replacement request.
type BOMLineRequest struct {
	RawMaterialID string          `json:"raw_material_id" binding:"required,uuid"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
}

// SetBOMRequest represents the request payload for replacing a product's BOM.
type SetBOMRequest struct {
	Lines []BOMLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreateRawMaterialRequest represents the request payload for creating a raw material.
type CreateRawMaterialRequest struct {
	Code      string `json:"code" binding:"required,min=1,max=50"`
	Name      string `json:"name" binding:"required,min=1,max=200"`
	ItemGroup string `json:"item_group" binding:"required,min=1,max=100"`
}

// CreateProduct creates a product.
// @Summary     Create a product
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProductRequest true "Product details"
// @Success     201 {object} models.Product
// @Failure     409 {object} ErrorResponse "Code already exists"
// @Router      /products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(req.Code, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PRODUCT", "product", product.ID, c.ClientIP(),
		map[string]interface{}{"code": req.Code})

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// GetProduct returns a product with its BOM.
// @Summary     Get a product
// @Tags        products
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Product ID"
// @Success     200 {object} models.Product
// @Failure     404 {object} ErrorResponse "Product not found"
// @Router      /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	product, err := h.productService.GetBOM(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListProducts lists products.
// @Summary     List products
// @Tags        products
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Product]
// @Router      /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.productService.ListProducts(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SetBOM replaces a product's bill of materials.
// @Summary     Replace a product's BOM
// @Description Replaces all BOM lines and bumps the product's BOM version
// @Tags        products
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Product ID"
// @Param       request body SetBOMRequest true "BOM lines"
// @Success     200 {object} models.Product
// @Failure     404 {object} ErrorResponse "Product or raw material not found"
// @Router      /products/{id}/bom [put]
func (h *ProductHandler) SetBOM(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SetBOMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	lines := make([]services.BOMLineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, services.BOMLineInput{
			RawMaterialID: line.RawMaterialID,
			Quantity:      line.Quantity,
		})
	}

	product, err := h.productService.SetBOM(id, lines)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SET_BOM", "product", product.ID, c.ClientIP(),
		map[string]interface{}{"bom_version": product.BOMVersion, "line_count": len(lines)})

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateRawMaterial creates a raw material.
// @Summary     Create a raw material
// @Tags        raw-materials
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRawMaterialRequest true "Raw material details"
// @Success     201 {object} models.RawMaterial
// @Failure     409 {object} ErrorResponse "Code already exists"
// @Router      /raw-materials [post]
func (h *ProductHandler) CreateRawMaterial(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRawMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	material, err := h.productService.CreateRawMaterial(req.Code, req.Name, req.ItemGroup)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RAW_MATERIAL", "raw_material", material.ID, c.ClientIP(),
		map[string]interface{}{"code": req.Code, "item_group": req.ItemGroup})

	c.JSON(http.StatusCreated, gin.H{"raw_material": material})
}

// GetRawMaterial returns a raw material by ID.
// @Summary     Get a raw material
// @Tags        raw-materials
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Raw material ID"
// @Success     200 {object} models.RawMaterial
// @Failure     404 {object} ErrorResponse "Raw material not found"
// @Router      /raw-materials/{id} [get]
func (h *ProductHandler) GetRawMaterial(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	material, err := h.productService.GetRawMaterial(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"raw_material": material})
}

// ListRawMaterials lists raw materials.
// @Summary     List raw materials
// @Tags        raw-materials
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.RawMaterial]
// @Router      /raw-materials [get]
func (h *ProductHandler) ListRawMaterials(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.productService.ListRawMaterials(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
