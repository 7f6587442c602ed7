package services

import (
	"errors"

	"gorm.io/gorm"

	"pricebook/internal/config"
	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
	"pricebook/internal/pagination"
)

// customerService is the customer directory.
type customerService struct {
	db *gorm.DB
}

// NewCustomerService creates a new CustomerServicer.
func NewCustomerService(db *gorm.DB) CustomerServicer {
	return &customerService{db: db}
}

// Create registers a new customer.
func (s *customerService) Create(code, name, groupID, pricingPattern, currency string) (*models.Customer, error) {
	if code == "" || name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "code and name are required")
	}
	if pricingPattern == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "pricing pattern is required")
	}
	if currency == "" {
		currency = config.Get().BaseCurrency
	}

	var count int64
	s.db.Model(&models.Customer{}).Where("code = ?", code).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateCode
	}

	customer := &models.Customer{
		Code:            code,
		Name:            name,
		CustomerGroupID: groupID,
		PricingPattern:  pricingPattern,
		Currency:        currency,
		IsActive:        true,
	}
	if err := s.db.Create(customer).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return customer, nil
}

// GetByID retrieves a customer by ID.
func (s *customerService) GetByID(id string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &customer, nil
}

// List returns a paginated list of customers.
func (s *customerService) List(page pagination.PageRequest) (*pagination.PageResponse[models.Customer], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Customer{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var customers []models.Customer
	if err := base.Scopes(pagination.Paginate(page)).Order("code ASC").Find(&customers).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(customers, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCustomerGroup returns the customer's group membership, "" when the
// customer belongs to no group.
func (s *customerService) GetCustomerGroup(customerID string) (string, error) {
	customer, err := s.GetByID(customerID)
	if err != nil {
		return "", err
	}
	return customer.CustomerGroupID, nil
}
