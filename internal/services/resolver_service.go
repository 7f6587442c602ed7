package services

import (
	"errors"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
)

// resolverService picks the single effective active record for a key. A
// customer-group override always wins over the global default; resolution
// is all-or-nothing per key — there are no partial overrides.
type resolverService struct {
	masterData MasterDataServicer
}

// NewResolverService creates a ResolverServicer on top of the lifecycle
// registry.
func NewResolverService(masterData MasterDataServicer) ResolverServicer {
	return &resolverService{masterData: masterData}
}

// Resolve returns the active record for (category, key), preferring the
// customerGroupID-scoped override when one is active. A miss returns the
// ErrNoActiveRecord sentinel; callers apply category policy (a missing
// scrap allowance is tolerated as zero, a missing exchange rate aborts the
// calculation) and attach the unresolved key to the error they surface.
//
// Resolution always re-queries active state; nothing is cached across
// calculations.
func (s *resolverService) Resolve(category models.Category, key, customerGroupID string) (*ResolvedValue, error) {
	manager, err := s.masterData.ForCategory(category)
	if err != nil {
		return nil, err
	}

	if customerGroupID != "" {
		record, err := manager.ActiveFor(key, customerGroupID)
		if err == nil {
			return &ResolvedValue{Record: *record, IsOverride: true}, nil
		}
		if !errors.Is(err, apperrors.ErrRecordNotFound) {
			return nil, err
		}
	}

	record, err := manager.ActiveFor(key, "")
	if err != nil {
		if errors.Is(err, apperrors.ErrRecordNotFound) {
			return nil, apperrors.ErrNoActiveRecord
		}
		return nil, err
	}
	return &ResolvedValue{Record: *record, IsOverride: false}, nil
}
