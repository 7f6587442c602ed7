package models

// RawMaterial is a purchasable input to a bill of materials. ItemGroup is
// the ERP classification code used to look up LME price, FAB cost, and
// scrap allowance; standard prices are keyed by the material code itself.
type RawMaterial struct {
	Base
	Code      string `gorm:"uniqueIndex;not null" json:"code"`
	Name      string `gorm:"not null" json:"name"`
	ItemGroup string `gorm:"not null;index" json:"item_group"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
}
