package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
	"pricebook/internal/pagination"
)

// calculationService is the price snapshot engine. It orchestrates the
// override resolver and the BOM cost composer, applies currency conversion
// and the customer's selling factor, and freezes the entire resolution into
// one immutable snapshot.
type calculationService struct {
	db        *gorm.DB
	resolver  ResolverServicer
	costing   CostingServicer
	customers CustomerServicer
	products  ProductServicer
}

// NewCalculationService creates a CalculationServicer.
func NewCalculationService(db *gorm.DB, resolver ResolverServicer, costing CostingServicer, customers CustomerServicer, products ProductServicer) CalculationServicer {
	return &calculationService{
		db:        db,
		resolver:  resolver,
		costing:   costing,
		customers: customers,
		products:  products,
	}
}

// rateKey is the natural key of an exchange-rate record.
func rateKey(source, target string) string {
	return source + "-" + target
}

// Calculate prices one product for one customer and persists the snapshot.
// Given an unchanged set of active records the computed results are
// deterministic, but every call appends a new snapshot — calculations are
// audit events, not cached lookups.
func (s *calculationService) Calculate(customerID, productID string, quantity decimal.Decimal, targetCurrency, requestedBy string) (*models.PriceCalculationSnapshot, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}
	if targetCurrency == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target currency is required")
	}
	if requestedBy == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "requested by is required")
	}

	customer, err := s.customers.GetByID(customerID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetBOM(productID)
	if err != nil {
		return nil, err
	}

	bomCost, err := s.costing.Compose(product.Lines, customer.CustomerGroupID)
	if err != nil {
		return nil, err
	}

	conversions, materialCost, err := s.convertSubtotals(bomCost.Subtotals, targetCurrency, customer.CustomerGroupID)
	if err != nil {
		return nil, err
	}

	factor, err := s.resolver.Resolve(models.CategorySellingFactor, customer.PricingPattern, customer.CustomerGroupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveRecord) {
			return nil, apperrors.WithMessage(apperrors.ErrMissingFactor,
				fmt.Sprintf("no active selling factor for pricing pattern %q", customer.PricingPattern))
		}
		return nil, err
	}

	unitSellingPrice := materialCost.Mul(factor.Record.Value)

	snapshot := &models.PriceCalculationSnapshot{
		RequestedBy:  requestedBy,
		CalculatedAt: time.Now().UTC(),

		CustomerID:      customer.ID,
		CustomerCode:    customer.Code,
		CustomerName:    customer.Name,
		CustomerGroupID: customer.CustomerGroupID,
		PricingPattern:  customer.PricingPattern,

		ProductID:   product.ID,
		ProductCode: product.Code,
		ProductName: product.Name,
		BOMVersion:  product.BOMVersion,

		Quantity:       quantity,
		TargetCurrency: targetCurrency,

		SellingFactor: factor.Ref(),

		MaterialCost:      materialCost,
		UnitSellingPrice:  unitSellingPrice,
		TotalSellingPrice: unitSellingPrice.Mul(quantity),

		Lines:       snapshotLines(bomCost.Lines),
		Conversions: conversions,
	}

	// One transaction for the header and all child rows; a failure leaves
	// no partial snapshot behind.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// convertSubtotals resolves one exchange rate per source currency and sums
// the converted amounts. Currencies are walked in sorted order so repeated
// calculations resolve and report in a stable order.
func (s *calculationService) convertSubtotals(subtotals map[string]decimal.Decimal, targetCurrency, customerGroupID string) ([]models.SnapshotConversion, decimal.Decimal, error) {
	currencies := make([]string, 0, len(subtotals))
	for currency := range subtotals {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	conversions := make([]models.SnapshotConversion, 0, len(currencies))
	total := decimal.Zero

	for _, currency := range currencies {
		amount := subtotals[currency]

		if currency == targetCurrency {
			conversions = append(conversions, models.SnapshotConversion{
				SourceCurrency: currency,
				ExchangeRate:   models.ResolutionRef{Value: decimal.NewFromInt(1)},
				SourceAmount:   amount,
				TargetAmount:   amount,
			})
			total = total.Add(amount)
			continue
		}

		rate, err := s.resolver.Resolve(models.CategoryExchangeRate, rateKey(currency, targetCurrency), customerGroupID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNoActiveRecord) {
				return nil, decimal.Zero, apperrors.WithMessage(apperrors.ErrMissingRate,
					fmt.Sprintf("no active exchange rate for %s", rateKey(currency, targetCurrency)))
			}
			return nil, decimal.Zero, err
		}

		converted := amount.Mul(rate.Record.Value)
		conversions = append(conversions, models.SnapshotConversion{
			SourceCurrency: currency,
			ExchangeRate:   rate.Ref(),
			SourceAmount:   amount,
			TargetAmount:   converted,
		})
		total = total.Add(converted)
	}

	return conversions, total, nil
}

// snapshotLines freezes composed line costs into snapshot rows.
func snapshotLines(lines []LineCost) []models.SnapshotLine {
	rows := make([]models.SnapshotLine, 0, len(lines))
	for i := range lines {
		line := &lines[i]
		row := models.SnapshotLine{
			RawMaterialID:   line.RawMaterialID,
			RawMaterialCode: line.RawMaterialCode,
			ItemGroup:       line.ItemGroup,
			Method:          line.Method,

			Quantity:         line.Quantity,
			ScrapPct:         line.ScrapPct,
			AdjustedQuantity: line.AdjustedQuantity,
			UnitCost:         line.UnitCost,
			Currency:         line.Currency,
			LineCost:         line.Cost,
		}
		if line.StandardPrice != nil {
			row.StandardPrice = line.StandardPrice.Ref()
		}
		if line.LmePrice != nil {
			row.LmePrice = line.LmePrice.Ref()
		}
		if line.FabCost != nil {
			row.FabCost = line.FabCost.Ref()
		}
		if line.Scrap != nil {
			row.Scrap = line.Scrap.Ref()
		}
		rows = append(rows, row)
	}
	return rows
}

// Get retrieves a snapshot with its lines and conversions.
func (s *calculationService) Get(id string) (*models.PriceCalculationSnapshot, error) {
	var snapshot models.PriceCalculationSnapshot
	err := s.db.Preload("Lines").Preload("Conversions").First(&snapshot, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// List returns a paginated, filtered page of snapshot headers, newest
// first. Lines and conversions are loaded through Get.
func (s *calculationService) List(page pagination.PageRequest, filter SnapshotFilter) (*pagination.PageResponse[models.PriceCalculationSnapshot], error) {
	page.Defaults()

	base := s.db.Model(&models.PriceCalculationSnapshot{})
	if filter.CustomerID != nil {
		base = base.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.ProductID != nil {
		base = base.Where("product_id = ?", *filter.ProductID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PriceCalculationSnapshot
	if err := base.Scopes(pagination.Paginate(page)).
		Order("calculated_at DESC").
		Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
