package models

import (
	"time"

	"pricebook/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category identifies one of the versioned master-data categories. All
// categories share the state machine and the master_data_records table;
// the category column discriminates them.
type Category string

const (
	CategoryExchangeRate   Category = "exchange_rate"
	CategoryFabCost        Category = "fab_cost"
	CategoryLmePrice       Category = "lme_price"
	CategorySellingFactor  Category = "selling_factor"
	CategoryScrapAllowance Category = "scrap_allowance"
	CategoryStandardPrice  Category = "standard_price"
)

// Categories lists every master-data category, in lifecycle registry order.
var Categories = []Category{
	CategoryExchangeRate,
	CategoryFabCost,
	CategoryLmePrice,
	CategorySellingFactor,
	CategoryScrapAllowance,
	CategoryStandardPrice,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Monetary reports whether records of this category carry a currency.
// Selling factors and scrap allowances are dimensionless multipliers.
func (c Category) Monetary() bool {
	switch c {
	case CategoryFabCost, CategoryLmePrice, CategoryStandardPrice:
		return true
	}
	return false
}

// RecordStatus is the lifecycle state of a master-data record.
type RecordStatus string

const (
	StatusDraft    RecordStatus = "draft"
	StatusActive   RecordStatus = "active"
	StatusArchived RecordStatus = "archived"
)

// MasterDataRecord is one version of one master-data value. A record is
// identified by (category, natural key, customer group, version); an empty
// customer group means the global default. Only drafts are mutable; active
// and archived records change only through status transitions.
//
// Two storage-level guards back the lifecycle invariants: ux_record_version
// forbids duplicate version numbers per key, and the partial unique index
// ux_record_active forbids a second active record per key.
type MasterDataRecord struct {
	ID              string   `gorm:"type:uuid;primaryKey" json:"id"`
	Category        Category `gorm:"not null;uniqueIndex:ux_record_version,priority:1;uniqueIndex:ux_record_active,priority:1,where:status = 'active'" json:"category"`
	NaturalKey      string   `gorm:"not null;uniqueIndex:ux_record_version,priority:2;uniqueIndex:ux_record_active,priority:2" json:"natural_key"`
	CustomerGroupID string   `gorm:"not null;default:'';uniqueIndex:ux_record_version,priority:3;uniqueIndex:ux_record_active,priority:3" json:"customer_group_id,omitempty"`
	Version         int      `gorm:"not null;uniqueIndex:ux_record_version,priority:4" json:"version"`

	Value    decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"value"`
	Currency string          `json:"currency,omitempty"`

	Status   RecordStatus `gorm:"not null;index" json:"status"`
	IsActive bool         `gorm:"not null;default:false;index" json:"is_active"`

	ApprovedBy    string     `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`

	CreatedBy    string    `gorm:"not null" json:"created_by"`
	UpdatedBy    string    `json:"updated_by,omitempty"`
	ChangeReason string    `json:"change_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (r *MasterDataRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New()
	}
	return nil
}

// IsOverride reports whether this record is scoped to a customer group
// rather than being the global default for its natural key.
func (r *MasterDataRecord) IsOverride() bool {
	return r.CustomerGroupID != ""
}
