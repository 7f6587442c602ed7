package models

import (
	"time"

	"pricebook/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ResolutionRef freezes one master-data resolution into a snapshot: which
// record, at which version, with which value, whether it was a customer
// group override, and who approved it. A zero RecordID means the input was
// not resolved (tolerated misses such as scrap allowance).
type ResolutionRef struct {
	RecordID   string          `gorm:"type:uuid" json:"record_id,omitempty"`
	Version    int             `json:"version,omitempty"`
	Value      decimal.Decimal `gorm:"type:decimal(18,6)" json:"value"`
	IsOverride bool            `json:"is_override"`
	ApprovedBy string          `json:"approved_by,omitempty"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
}

// Resolved reports whether the reference points at an actual record.
func (r ResolutionRef) Resolved() bool { return r.RecordID != "" }

// CostMethod tags how a snapshot line's unit cost was derived.
type CostMethod string

const (
	// CostMethodStandardPrice means the line used a direct standard price
	// for the raw material.
	CostMethodStandardPrice CostMethod = "standard_price"
	// CostMethodLmeFab means the line used commodity index price plus
	// fabrication cost for the material's item group.
	CostMethodLmeFab CostMethod = "lme_fab"
)

// PriceCalculationSnapshot is the immutable audit record of one price
// calculation: request metadata, customer and product identity as observed
// at calculation time, every master-data resolution used, and the computed
// totals. Snapshots are append-only time-series data — no Base embed, no
// soft deletes, never updated.
type PriceCalculationSnapshot struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	RequestedBy  string    `gorm:"type:uuid;not null;index" json:"requested_by"`
	CalculatedAt time.Time `gorm:"not null;index" json:"calculated_at"`

	CustomerID      string `gorm:"type:uuid;not null;index" json:"customer_id"`
	CustomerCode    string `gorm:"not null" json:"customer_code"`
	CustomerName    string `gorm:"not null" json:"customer_name"`
	CustomerGroupID string `json:"customer_group_id,omitempty"`
	PricingPattern  string `gorm:"not null" json:"pricing_pattern"`

	ProductID   string `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductCode string `gorm:"not null" json:"product_code"`
	ProductName string `gorm:"not null" json:"product_name"`
	BOMVersion  int    `gorm:"not null" json:"bom_version"`

	Quantity       decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`
	TargetCurrency string          `gorm:"not null" json:"target_currency"`

	SellingFactor ResolutionRef `gorm:"embedded;embeddedPrefix:selling_factor_" json:"selling_factor"`

	// MaterialCost is the converted per-unit material subtotal in the
	// target currency; selling prices apply the selling factor and the
	// requested quantity.
	MaterialCost      decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"material_cost"`
	UnitSellingPrice  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"unit_selling_price"`
	TotalSellingPrice decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"total_selling_price"`

	Lines       []SnapshotLine       `gorm:"foreignKey:SnapshotID" json:"lines,omitempty"`
	Conversions []SnapshotConversion `gorm:"foreignKey:SnapshotID" json:"conversions,omitempty"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (s *PriceCalculationSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}

// SnapshotLine freezes one BOM line's cost derivation. Method tells which
// resolution refs are meaningful: standard_price lines carry StandardPrice,
// lme_fab lines carry LmePrice and FabCost. Scrap is present on either when
// a scrap allowance was active for the item group.
type SnapshotLine struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID string `gorm:"type:uuid;not null;index" json:"snapshot_id"`

	RawMaterialID   string `gorm:"type:uuid;not null" json:"raw_material_id"`
	RawMaterialCode string `gorm:"not null" json:"raw_material_code"`
	ItemGroup       string `gorm:"not null" json:"item_group"`

	Method CostMethod `gorm:"not null" json:"method"`

	StandardPrice ResolutionRef `gorm:"embedded;embeddedPrefix:std_price_" json:"standard_price,omitempty"`
	LmePrice      ResolutionRef `gorm:"embedded;embeddedPrefix:lme_price_" json:"lme_price,omitempty"`
	FabCost       ResolutionRef `gorm:"embedded;embeddedPrefix:fab_cost_" json:"fab_cost,omitempty"`
	Scrap         ResolutionRef `gorm:"embedded;embeddedPrefix:scrap_" json:"scrap,omitempty"`

	Quantity         decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`
	ScrapPct         decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"scrap_pct"`
	AdjustedQuantity decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"adjusted_quantity"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"unit_cost"`
	Currency         string          `gorm:"not null" json:"currency"`
	LineCost         decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"line_cost"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (l *SnapshotLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New()
	}
	return nil
}

// SnapshotConversion freezes one currency conversion applied to a
// per-currency material subtotal. Identity conversions (source equals the
// target currency) carry rate 1 and no resolution ref.
type SnapshotConversion struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID string `gorm:"type:uuid;not null;index" json:"snapshot_id"`

	SourceCurrency string          `gorm:"not null" json:"source_currency"`
	ExchangeRate   ResolutionRef   `gorm:"embedded;embeddedPrefix:rate_" json:"exchange_rate"`
	SourceAmount   decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"source_amount"`
	TargetAmount   decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"target_amount"`
}

// BeforeCreate hook generates a UUIDv7 for new records.
func (c *SnapshotConversion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	return nil
}
