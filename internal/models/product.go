package models

import "github.com/shopspring/decimal"

// Product is a finished good priced from its bill of materials. BOMVersion
// increments whenever lines are replaced, so snapshots can record which
// revision of the BOM they were computed from.
type Product struct {
	Base
	Code       string `gorm:"uniqueIndex;not null" json:"code"`
	Name       string `gorm:"not null" json:"name"`
	BOMVersion int    `gorm:"not null;default:1" json:"bom_version"`
	IsActive   bool   `gorm:"not null;default:true" json:"is_active"`

	Lines []BOMLine `gorm:"foreignKey:ProductID" json:"lines,omitempty"`
}

// BOMLine is one raw-material requirement of a product.
type BOMLine struct {
	Base
	ProductID     string          `gorm:"type:uuid;not null;index" json:"product_id"`
	RawMaterialID string          `gorm:"type:uuid;not null" json:"raw_material_id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`

	RawMaterial RawMaterial `gorm:"foreignKey:RawMaterialID" json:"raw_material,omitempty"`
}
