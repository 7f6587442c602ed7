package services

import (
	"github.com/shopspring/decimal"

	"pricebook/internal/models"
	"pricebook/internal/pagination"
)

// RecordPatch holds the mutable business fields of a master-data draft.
// Nil fields are left unchanged.
type RecordPatch struct {
	Value        *decimal.Decimal
	Currency     *string
	ChangeReason *string
}

// RecordFilter holds optional filter parameters for listing records.
type RecordFilter struct {
	NaturalKey      *string
	CustomerGroupID *string
	Status          *models.RecordStatus
}

// LifecycleServicer drives the draft/active/archived state machine for one
// master-data category. Implementations are obtained per category from
// MasterDataServicer.
type LifecycleServicer interface {
	Category() models.Category
	Create(key, groupID string, value decimal.Decimal, currency, creator, reason string) (*models.MasterDataRecord, error)
	Update(id string, patch RecordPatch, editor string) (*models.MasterDataRecord, error)
	Approve(id, approver string) (*models.MasterDataRecord, error)
	Rollback(id, actor string) (*models.MasterDataRecord, error)
	Delete(id string) error
	History(id string) ([]models.MasterDataRecord, error)
	ActiveFor(key, groupID string) (*models.MasterDataRecord, error)
	List(page pagination.PageRequest, filter RecordFilter) (*pagination.PageResponse[models.MasterDataRecord], error)
}

// MasterDataServicer hands out the lifecycle manager for a category.
type MasterDataServicer interface {
	ForCategory(category models.Category) (LifecycleServicer, error)
}

// ResolvedValue is the outcome of an override resolution: the single
// effective active record for a key, tagged with whether a customer-group
// override won over the global default.
type ResolvedValue struct {
	Record     models.MasterDataRecord
	IsOverride bool
}

// Ref freezes the resolution into a snapshot reference.
func (v *ResolvedValue) Ref() models.ResolutionRef {
	return models.ResolutionRef{
		RecordID:   v.Record.ID,
		Version:    v.Record.Version,
		Value:      v.Record.Value,
		IsOverride: v.IsOverride,
		ApprovedBy: v.Record.ApprovedBy,
		ApprovedAt: v.Record.ApprovedAt,
	}
}

// ResolverServicer returns the effective active record for a key,
// preferring a customer-group override over the global default.
type ResolverServicer interface {
	Resolve(category models.Category, key, customerGroupID string) (*ResolvedValue, error)
}

// LineCost is one BOM line's cost derivation in its native currency.
type LineCost struct {
	RawMaterialID   string
	RawMaterialCode string
	ItemGroup       string

	Method models.CostMethod

	StandardPrice *ResolvedValue
	LmePrice      *ResolvedValue
	FabCost       *ResolvedValue
	Scrap         *ResolvedValue

	Quantity         decimal.Decimal
	ScrapPct         decimal.Decimal
	AdjustedQuantity decimal.Decimal
	UnitCost         decimal.Decimal
	Currency         string
	Cost             decimal.Decimal
}

// BOMCost is the composed material cost of a full bill of materials.
// Subtotals are grouped by native line currency; conversion to a common
// currency is the snapshot engine's job.
type BOMCost struct {
	Lines     []LineCost
	Subtotals map[string]decimal.Decimal
}

// CostingServicer composes per-line material costs for a bill of materials.
type CostingServicer interface {
	Compose(lines []models.BOMLine, customerGroupID string) (*BOMCost, error)
}

// SnapshotFilter holds optional filter parameters for listing snapshots.
type SnapshotFilter struct {
	CustomerID *string
	ProductID  *string
}

// CalculationServicer orchestrates a price calculation and persists its
// immutable snapshot.
type CalculationServicer interface {
	Calculate(customerID, productID string, quantity decimal.Decimal, targetCurrency, requestedBy string) (*models.PriceCalculationSnapshot, error)
	Get(id string) (*models.PriceCalculationSnapshot, error)
	List(page pagination.PageRequest, filter SnapshotFilter) (*pagination.PageResponse[models.PriceCalculationSnapshot], error)
}

// CustomerServicer is the customer directory.
type CustomerServicer interface {
	Create(code, name, groupID, pricingPattern, currency string) (*models.Customer, error)
	GetByID(id string) (*models.Customer, error)
	List(page pagination.PageRequest) (*pagination.PageResponse[models.Customer], error)
	// GetCustomerGroup returns the customer's group id, or "" when the
	// customer belongs to no group.
	GetCustomerGroup(customerID string) (string, error)
}

// BOMLineInput is one requested line when replacing a product's BOM.
type BOMLineInput struct {
	RawMaterialID string
	Quantity      decimal.Decimal
}

// ProductServicer is the product/BOM provider.
type ProductServicer interface {
	CreateProduct(code, name string) (*models.Product, error)
	GetProduct(id string) (*models.Product, error)
	ListProducts(page pagination.PageRequest) (*pagination.PageResponse[models.Product], error)
	// SetBOM replaces the product's lines and bumps its BOM version.
	SetBOM(productID string, lines []BOMLineInput) (*models.Product, error)
	// GetBOM returns the product with lines and raw materials preloaded.
	GetBOM(productID string) (*models.Product, error)

	CreateRawMaterial(code, name, itemGroup string) (*models.RawMaterial, error)
	GetRawMaterial(id string) (*models.RawMaterial, error)
	ListRawMaterials(page pagination.PageRequest) (*pagination.PageResponse[models.RawMaterial], error)
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
