package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
	"pricebook/internal/pagination"
)

// productService is the product/BOM provider and raw-material registry.
type productService struct {
	db *gorm.DB
}

// NewProductService creates a new ProductServicer.
func NewProductService(db *gorm.DB) ProductServicer {
	return &productService{db: db}
}

// CreateProduct registers a new finished good with an empty BOM.
func (s *productService) CreateProduct(code, name string) (*models.Product, error) {
	if code == "" || name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "code and name are required")
	}

	var count int64
	s.db.Model(&models.Product{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	product := &models.Product{
		Code:       code,
		Name:       name,
		BOMVersion: 1,
		IsActive:   true,
	}
	if err := s.db.Create(product).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return product, nil
}

// GetProduct retrieves a product header by ID.
func (s *productService) GetProduct(id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &product, nil
}

// ListProducts returns a paginated list of products.
func (s *productService) ListProducts(page pagination.PageRequest) (*pagination.PageResponse[models.Product], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Product{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var products []models.Product
	if err := base.Scopes(pagination.Paginate(page)).Order("code ASC").Find(&products).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(products, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// SetBOM replaces the product's lines and bumps the BOM version. All raw
// materials must exist; the replacement is a single transaction.
func (s *productService) SetBOM(productID string, lines []BOMLineInput) (*models.Product, error) {
	if len(lines) == 0 {
		return nil, apperrors.ErrEmptyBOM
	}

	var result *models.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.GetProduct(productID)
		if err != nil {
			return err
		}

		for _, line := range lines {
			if line.Quantity.Sign() <= 0 {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "line quantity must be greater than zero")
			}
			var count int64
			if err := tx.Model(&models.RawMaterial{}).Where("id = ?", line.RawMaterialID).Count(&count).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count == 0 {
				return apperrors.WithMessage(apperrors.ErrRawMaterialNotFound,
					fmt.Sprintf("raw material %s does not exist", line.RawMaterialID))
			}
		}

		if err := tx.Where("product_id = ?", productID).Delete(&models.BOMLine{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, line := range lines {
			row := &models.BOMLine{
				ProductID:     productID,
				RawMaterialID: line.RawMaterialID,
				Quantity:      line.Quantity,
			}
			if err := tx.Create(row).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := tx.Model(product).Update("bom_version", gorm.Expr("bom_version + 1")).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var reloaded models.Product
		if err := tx.Preload("Lines.RawMaterial").First(&reloaded, "id = ?", productID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = &reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetBOM returns the product with lines and raw materials preloaded, as
// consumed by the snapshot engine.
func (s *productService) GetBOM(productID string) (*models.Product, error) {
	var product models.Product
	err := s.db.Preload("Lines.RawMaterial").First(&product, "id = ?", productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &product, nil
}

// CreateRawMaterial registers a purchasable input.
func (s *productService) CreateRawMaterial(code, name, itemGroup string) (*models.RawMaterial, error) {
	if code == "" || name == "" || itemGroup == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "code, name and item group are required")
	}

	var count int64
	s.db.Model(&models.RawMaterial{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	material := &models.RawMaterial{
		Code:      code,
		Name:      name,
		ItemGroup: itemGroup,
		IsActive:  true,
	}
	if err := s.db.Create(material).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return material, nil
}

// GetRawMaterial retrieves a raw material by ID.
func (s *productService) GetRawMaterial(id string) (*models.RawMaterial, error) {
	var material models.RawMaterial
	if err := s.db.First(&material, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRawMaterialNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &material, nil
}

// ListRawMaterials returns a paginated list of raw materials.
func (s *productService) ListRawMaterials(page pagination.PageRequest) (*pagination.PageResponse[models.RawMaterial], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.RawMaterial{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var materials []models.RawMaterial
	if err := base.Scopes(pagination.Paginate(page)).Order("code ASC").Find(&materials).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(materials, page.Page, page.PageSize, totalItems)
	return &result, nil
}
