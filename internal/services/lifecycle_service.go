package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
	"pricebook/internal/pagination"
)

// lifecycleService drives the draft/active/archived state machine for one
// master-data category. The same implementation serves every category; the
// registry instantiates it once per category.
type lifecycleService struct {
	db       *gorm.DB
	category models.Category
}

// NewLifecycleService creates a LifecycleServicer for one category.
func NewLifecycleService(db *gorm.DB, category models.Category) LifecycleServicer {
	return &lifecycleService{db: db, category: category}
}

// Category returns the category this manager operates on.
func (s *lifecycleService) Category() models.Category {
	return s.category
}

// keyRecords loads every version for (key, groupID), newest first. On
// Postgres the rows are locked for the enclosing transaction so concurrent
// state transitions on the same key serialize; SQLite serializes writers
// itself, and the partial unique active index backstops the invariant
// everywhere. Callers must branch on record status using the rows from
// this locked set, never on an earlier unlocked read.
func (s *lifecycleService) keyRecords(tx *gorm.DB, key, groupID string) ([]models.MasterDataRecord, error) {
	q := tx.Where("category = ? AND natural_key = ? AND customer_group_id = ?", s.category, key, groupID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var records []models.MasterDataRecord
	if err := q.Order("version DESC").Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return records, nil
}

func maxVersion(records []models.MasterDataRecord) int {
	max := 0
	for i := range records {
		if records[i].Version > max {
			max = records[i].Version
		}
	}
	return max
}

func findDraft(records []models.MasterDataRecord) *models.MasterDataRecord {
	for i := range records {
		if records[i].Status == models.StatusDraft {
			return &records[i]
		}
	}
	return nil
}

func findActive(records []models.MasterDataRecord) *models.MasterDataRecord {
	for i := range records {
		if records[i].Status == models.StatusActive {
			return &records[i]
		}
	}
	return nil
}

func findByID(records []models.MasterDataRecord, id string) *models.MasterDataRecord {
	for i := range records {
		if records[i].ID == id {
			return &records[i]
		}
	}
	return nil
}

// lockTarget resolves id to its record under the per-key lock. The initial
// getByID read only establishes which key to lock; the returned record
// comes from the locked row set, so its status cannot go stale before the
// transaction writes. A concurrently deleted record surfaces as not found.
func (s *lifecycleService) lockTarget(tx *gorm.DB, id string) (*models.MasterDataRecord, []models.MasterDataRecord, error) {
	unlocked, err := s.getByID(tx, id)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.keyRecords(tx, unlocked.NaturalKey, unlocked.CustomerGroupID)
	if err != nil {
		return nil, nil, err
	}

	target := findByID(existing, id)
	if target == nil {
		return nil, nil, apperrors.ErrRecordNotFound
	}
	return target, existing, nil
}

// applyPatch copies the non-nil patch fields onto a draft.
func (s *lifecycleService) applyPatch(record *models.MasterDataRecord, patch RecordPatch, editor string) {
	if patch.Value != nil {
		record.Value = *patch.Value
	}
	if patch.Currency != nil && s.category.Monetary() {
		record.Currency = *patch.Currency
	}
	if patch.ChangeReason != nil {
		record.ChangeReason = *patch.ChangeReason
	}
	record.UpdatedBy = editor
}

// Create opens a new draft for (key, groupID) at version max + 1. It fails
// with DRAFT_EXISTS when a draft is already open for the key; callers must
// edit that draft through Update instead.
func (s *lifecycleService) Create(key, groupID string, value decimal.Decimal, currency, creator, reason string) (*models.MasterDataRecord, error) {
	if key == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "natural key is required")
	}
	if creator == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "creator is required")
	}
	if s.category.Monetary() {
		if currency == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("currency is required for %s records", s.category))
		}
	} else {
		currency = ""
	}

	var record *models.MasterDataRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.keyRecords(tx, key, groupID)
		if err != nil {
			return err
		}
		if findDraft(existing) != nil {
			return apperrors.WithMessage(apperrors.ErrDraftExists,
				fmt.Sprintf("a %s draft already exists for key %q", s.category, key))
		}

		record = &models.MasterDataRecord{
			Category:        s.category,
			NaturalKey:      key,
			CustomerGroupID: groupID,
			Version:         maxVersion(existing) + 1,
			Value:           value,
			Currency:        currency,
			Status:          models.StatusDraft,
			CreatedBy:       creator,
			ChangeReason:    reason,
		}
		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Wrap(apperrors.ErrDraftExists, err)
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update edits a record. A draft is mutated in place. Editing an active or
// archived record never mutates it: the patch lands on the key's open draft
// if one exists, otherwise a new draft is spawned at version max + 1 seeded
// from the target's values.
func (s *lifecycleService) Update(id string, patch RecordPatch, editor string) (*models.MasterDataRecord, error) {
	var result *models.MasterDataRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		target, existing, err := s.lockTarget(tx, id)
		if err != nil {
			return err
		}

		if target.Status == models.StatusDraft {
			s.applyPatch(target, patch, editor)
			if err := tx.Save(target).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result = target
			return nil
		}

		if draft := findDraft(existing); draft != nil {
			s.applyPatch(draft, patch, editor)
			if err := tx.Save(draft).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result = draft
			return nil
		}

		draft := &models.MasterDataRecord{
			Category:        s.category,
			NaturalKey:      target.NaturalKey,
			CustomerGroupID: target.CustomerGroupID,
			Version:         maxVersion(existing) + 1,
			Value:           target.Value,
			Currency:        target.Currency,
			Status:          models.StatusDraft,
			CreatedBy:       editor,
		}
		s.applyPatch(draft, patch, editor)
		if err := tx.Create(draft).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Approve promotes a draft to active. The key's current active record (if
// any) is archived with effective_to set, then the draft is activated with
// effective_from, approved_by and approved_at — both writes in one
// transaction, so a crash can never leave zero or two active records.
func (s *lifecycleService) Approve(id, approver string) (*models.MasterDataRecord, error) {
	if approver == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "approver is required")
	}

	var result *models.MasterDataRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		target, existing, err := s.lockTarget(tx, id)
		if err != nil {
			return err
		}
		if target.Status != models.StatusDraft {
			return apperrors.WithMessage(apperrors.ErrInvalidState,
				fmt.Sprintf("cannot approve a %s record; only drafts are approvable", target.Status))
		}

		now := time.Now().UTC()
		if active := findActive(existing); active != nil {
			updates := map[string]interface{}{
				"status":       models.StatusArchived,
				"is_active":    false,
				"effective_to": now,
				"updated_by":   approver,
			}
			if err := tx.Model(&models.MasterDataRecord{}).Where("id = ?", active.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		updates := map[string]interface{}{
			"status":         models.StatusActive,
			"is_active":      true,
			"effective_from": now,
			"approved_by":    approver,
			"approved_at":    now,
			"updated_by":     approver,
		}
		if err := tx.Model(&models.MasterDataRecord{}).Where("id = ?", target.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Wrap(apperrors.ErrActiveConflict, err)
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var activated models.MasterDataRecord
		if err := tx.First(&activated, "id = ?", target.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = &activated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Rollback reopens an archived record as a brand-new draft at version
// max + 1 with the approval fields cleared. The new draft must pass Approve
// again before taking effect; the key's current active record is untouched.
func (s *lifecycleService) Rollback(id, actor string) (*models.MasterDataRecord, error) {
	var result *models.MasterDataRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		target, existing, err := s.lockTarget(tx, id)
		if err != nil {
			return err
		}
		if target.Status != models.StatusArchived {
			return apperrors.WithMessage(apperrors.ErrInvalidState,
				fmt.Sprintf("cannot roll back a %s record; only archived versions can be reopened", target.Status))
		}
		if findDraft(existing) != nil {
			return apperrors.WithMessage(apperrors.ErrDraftExists,
				fmt.Sprintf("a %s draft already exists for key %q; edit or delete it first", s.category, target.NaturalKey))
		}

		draft := &models.MasterDataRecord{
			Category:        s.category,
			NaturalKey:      target.NaturalKey,
			CustomerGroupID: target.CustomerGroupID,
			Version:         maxVersion(existing) + 1,
			Value:           target.Value,
			Currency:        target.Currency,
			Status:          models.StatusDraft,
			CreatedBy:       actor,
			ChangeReason:    fmt.Sprintf("rollback of version %d", target.Version),
		}
		if err := tx.Create(draft).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a draft. Active and archived records are immutable history
// and cannot be deleted.
func (s *lifecycleService) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		target, _, err := s.lockTarget(tx, id)
		if err != nil {
			return err
		}
		if target.Status != models.StatusDraft {
			return apperrors.WithMessage(apperrors.ErrInvalidState,
				fmt.Sprintf("cannot delete a %s record; only drafts may be deleted", target.Status))
		}
		if err := tx.Delete(&models.MasterDataRecord{}, "id = ?", id).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// History returns every version for the record's (key, groupID), newest
// version first.
func (s *lifecycleService) History(id string) ([]models.MasterDataRecord, error) {
	target, err := s.getByID(s.db, id)
	if err != nil {
		return nil, err
	}

	var records []models.MasterDataRecord
	if err := s.db.
		Where("category = ? AND natural_key = ? AND customer_group_id = ?", s.category, target.NaturalKey, target.CustomerGroupID).
		Order("version DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return records, nil
}

// ActiveFor returns the single active record for (key, groupID).
func (s *lifecycleService) ActiveFor(key, groupID string) (*models.MasterDataRecord, error) {
	var record models.MasterDataRecord
	err := s.db.
		Where("category = ? AND natural_key = ? AND customer_group_id = ? AND status = ?",
			s.category, key, groupID, models.StatusActive).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}

// List returns a paginated, filtered page of this category's records,
// newest key/version first.
func (s *lifecycleService) List(page pagination.PageRequest, filter RecordFilter) (*pagination.PageResponse[models.MasterDataRecord], error) {
	page.Defaults()

	base := s.db.Model(&models.MasterDataRecord{}).Where("category = ?", s.category)
	if filter.NaturalKey != nil {
		base = base.Where("natural_key = ?", *filter.NaturalKey)
	}
	if filter.CustomerGroupID != nil {
		base = base.Where("customer_group_id = ?", *filter.CustomerGroupID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var records []models.MasterDataRecord
	if err := base.Scopes(pagination.Paginate(page)).
		Order("natural_key ASC, customer_group_id ASC, version DESC").
		Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(records, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// getByID fetches one record of this category by primary key.
func (s *lifecycleService) getByID(tx *gorm.DB, id string) (*models.MasterDataRecord, error) {
	var record models.MasterDataRecord
	if err := tx.Where("id = ? AND category = ?", id, s.category).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecordNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &record, nil
}
