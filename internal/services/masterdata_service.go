package services

import (
	"fmt"

	"gorm.io/gorm"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
)

// masterDataService is the registry of per-category lifecycle managers.
// One shared state machine, instantiated once per category — no
// per-category subclassing.
type masterDataService struct {
	managers map[models.Category]LifecycleServicer
}

// NewMasterDataService creates a MasterDataServicer with a lifecycle
// manager for every known category.
func NewMasterDataService(db *gorm.DB) MasterDataServicer {
	managers := make(map[models.Category]LifecycleServicer, len(models.Categories))
	for _, category := range models.Categories {
		managers[category] = NewLifecycleService(db, category)
	}
	return &masterDataService{managers: managers}
}

// ForCategory returns the lifecycle manager for a category.
func (s *masterDataService) ForCategory(category models.Category) (LifecycleServicer, error) {
	manager, ok := s.managers[category]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrUnknownCategory,
			fmt.Sprintf("unknown master-data category %q", category))
	}
	return manager, nil
}
