package models

// Customer is a buyer of finished goods. CustomerGroupID links the customer
// to group-scoped master-data overrides; PricingPattern selects the selling
// factor applied to its calculations.
type Customer struct {
	Base
	Code            string `gorm:"uniqueIndex;not null" json:"code"`
	Name            string `gorm:"not null" json:"name"`
	CustomerGroupID string `gorm:"index" json:"customer_group_id,omitempty"`
	PricingPattern  string `gorm:"not null" json:"pricing_pattern"`
	Currency        string `gorm:"not null;default:'USD'" json:"currency"`
	IsActive        bool   `gorm:"not null;default:true" json:"is_active"`
}
