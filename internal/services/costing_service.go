package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
)

// costingService walks a bill of materials and derives each line's cost in
// the line's native currency. Direct standard prices win; otherwise the
// commodity (LME) price plus fabrication cost for the material's item group
// applies. Currency conversion never happens here — per-currency subtotals
// are handed to the snapshot engine.
type costingService struct {
	resolver ResolverServicer
}

// NewCostingService creates a CostingServicer on top of the resolver.
func NewCostingService(resolver ResolverServicer) CostingServicer {
	return &costingService{resolver: resolver}
}

// Compose derives the material cost of every BOM line. Lines must carry
// their raw material preloaded. customerGroupID scopes every resolution so
// group overrides apply per line.
func (s *costingService) Compose(lines []models.BOMLine, customerGroupID string) (*BOMCost, error) {
	if len(lines) == 0 {
		return nil, apperrors.ErrEmptyBOM
	}

	result := &BOMCost{
		Lines:     make([]LineCost, 0, len(lines)),
		Subtotals: make(map[string]decimal.Decimal),
	}

	for i := range lines {
		line, err := s.composeLine(&lines[i], customerGroupID)
		if err != nil {
			return nil, err
		}
		result.Lines = append(result.Lines, *line)
		result.Subtotals[line.Currency] = result.Subtotals[line.Currency].Add(line.Cost)
	}

	return result, nil
}

func (s *costingService) composeLine(bomLine *models.BOMLine, customerGroupID string) (*LineCost, error) {
	material := &bomLine.RawMaterial
	if material.ID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrRawMaterialNotFound,
			fmt.Sprintf("BOM line references unknown raw material %s", bomLine.RawMaterialID))
	}

	line := &LineCost{
		RawMaterialID:   material.ID,
		RawMaterialCode: material.Code,
		ItemGroup:       material.ItemGroup,
		Quantity:        bomLine.Quantity,
	}

	if err := s.resolveUnitCost(line, material, customerGroupID); err != nil {
		return nil, err
	}

	// Scrap allowance is tolerated as zero when absent.
	scrap, err := s.resolver.Resolve(models.CategoryScrapAllowance, material.ItemGroup, customerGroupID)
	switch {
	case err == nil:
		line.Scrap = scrap
		line.ScrapPct = scrap.Record.Value
	case errors.Is(err, apperrors.ErrNoActiveRecord):
		line.ScrapPct = decimal.Zero
	default:
		return nil, err
	}

	line.AdjustedQuantity = line.Quantity.Mul(decimal.NewFromInt(1).Add(line.ScrapPct))
	line.Cost = line.UnitCost.Mul(line.AdjustedQuantity)
	return line, nil
}

// resolveUnitCost fills the line's method, unit cost and currency: a direct
// standard price for the material code when one is active, otherwise LME
// price plus FAB cost for the item group.
func (s *costingService) resolveUnitCost(line *LineCost, material *models.RawMaterial, customerGroupID string) error {
	std, err := s.resolver.Resolve(models.CategoryStandardPrice, material.Code, customerGroupID)
	if err == nil {
		line.Method = models.CostMethodStandardPrice
		line.StandardPrice = std
		line.UnitCost = std.Record.Value
		line.Currency = std.Record.Currency
		return nil
	}
	if !errors.Is(err, apperrors.ErrNoActiveRecord) {
		return err
	}

	lme, err := s.resolver.Resolve(models.CategoryLmePrice, material.ItemGroup, customerGroupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveRecord) {
			return apperrors.WithMessage(apperrors.ErrMissingPrice,
				fmt.Sprintf("no standard price for material %q and no LME price for item group %q", material.Code, material.ItemGroup))
		}
		return err
	}

	fab, err := s.resolver.Resolve(models.CategoryFabCost, material.ItemGroup, customerGroupID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoActiveRecord) {
			return apperrors.WithMessage(apperrors.ErrMissingPrice,
				fmt.Sprintf("no standard price for material %q and no FAB cost for item group %q", material.Code, material.ItemGroup))
		}
		return err
	}

	if lme.Record.Currency != fab.Record.Currency {
		return apperrors.WithMessage(apperrors.ErrCurrencyMismatch,
			fmt.Sprintf("LME price (%s) and FAB cost (%s) for item group %q are in different currencies",
				lme.Record.Currency, fab.Record.Currency, material.ItemGroup))
	}

	line.Method = models.CostMethodLmeFab
	line.LmePrice = lme
	line.FabCost = fab
	line.UnitCost = lme.Record.Value.Add(fab.Record.Value)
	line.Currency = lme.Record.Currency
	return nil
}
