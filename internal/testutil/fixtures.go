package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pricebook/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCustomer creates a customer in the given group with the given
// pricing pattern. An empty group means no group membership.
func CreateTestCustomer(t *testing.T, db *gorm.DB, groupID, pricingPattern string) *models.Customer {
	t.Helper()

	customer := &models.Customer{
		Code:            fmt.Sprintf("CUST-%d", nextID()),
		Name:            fmt.Sprintf("Test Customer %d", nextID()),
		CustomerGroupID: groupID,
		PricingPattern:  pricingPattern,
		Currency:        "THB",
		IsActive:        true,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("failed to create test customer: %v", err)
	}
	return customer
}

// CreateTestRawMaterial creates a raw material in the given item group.
func CreateTestRawMaterial(t *testing.T, db *gorm.DB, itemGroup string) *models.RawMaterial {
	t.Helper()

	material := &models.RawMaterial{
		Code:      fmt.Sprintf("RM-%d", nextID()),
		Name:      fmt.Sprintf("Test Material %d", nextID()),
		ItemGroup: itemGroup,
		IsActive:  true,
	}
	if err := db.Create(material).Error; err != nil {
		t.Fatalf("failed to create test raw material: %v", err)
	}
	return material
}

// CreateTestProduct creates a product with no BOM lines.
func CreateTestProduct(t *testing.T, db *gorm.DB) *models.Product {
	t.Helper()

	product := &models.Product{
		Code:       fmt.Sprintf("FG-%d", nextID()),
		Name:       fmt.Sprintf("Test Product %d", nextID()),
		BOMVersion: 1,
		IsActive:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("failed to create test product: %v", err)
	}
	return product
}

// CreateTestBOMLine adds one line to a product's BOM.
func CreateTestBOMLine(t *testing.T, db *gorm.DB, productID, rawMaterialID string, quantity decimal.Decimal) *models.BOMLine {
	t.Helper()

	line := &models.BOMLine{
		ProductID:     productID,
		RawMaterialID: rawMaterialID,
		Quantity:      quantity,
	}
	if err := db.Create(line).Error; err != nil {
		t.Fatalf("failed to create test BOM line: %v", err)
	}
	return line
}

// CreateActiveRecord inserts a master-data record directly in active state
// at version 1, bypassing the lifecycle, for tests that only need resolvable
// data.
func CreateActiveRecord(t *testing.T, db *gorm.DB, category models.Category, key, groupID string, value decimal.Decimal, currency string) *models.MasterDataRecord {
	t.Helper()
	return CreateRecordAtVersion(t, db, category, key, groupID, 1, models.StatusActive, value, currency)
}

// CreateRecordAtVersion inserts a master-data record with explicit version
// and status, bypassing the lifecycle.
func CreateRecordAtVersion(t *testing.T, db *gorm.DB, category models.Category, key, groupID string, version int, status models.RecordStatus, value decimal.Decimal, currency string) *models.MasterDataRecord {
	t.Helper()

	now := time.Now().UTC()
	record := &models.MasterDataRecord{
		Category:        category,
		NaturalKey:      key,
		CustomerGroupID: groupID,
		Version:         version,
		Value:           value,
		Currency:        currency,
		Status:          status,
		CreatedBy:       "fixture",
	}
	if status == models.StatusActive {
		record.IsActive = true
		record.ApprovedBy = "fixture"
		record.ApprovedAt = &now
		record.EffectiveFrom = &now
	}
	if status == models.StatusArchived {
		record.ApprovedBy = "fixture"
		record.ApprovedAt = &now
		record.EffectiveFrom = &now
		record.EffectiveTo = &now
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create test master-data record: %v", err)
	}
	return record
}
