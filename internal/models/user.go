package models

// User is an operator of the pricing system. User IDs appear in master-data
// approval metadata and in snapshot request metadata.
type User struct {
	Base
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsActive  bool   `gorm:"not null;default:true" json:"is_active"`
}
