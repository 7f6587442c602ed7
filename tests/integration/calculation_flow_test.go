package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pricingFixture holds the IDs created while setting up a sellable product.
type pricingFixture struct {
	customerID    string
	productID     string
	rawMaterialID string
}

// setupPricingData builds a complete pricing scenario over the HTTP surface:
// a raw material with an approved standard price of 12.00 THB, a product
// whose BOM consumes 10 units of it, a 5% scrap allowance, and a selling
// factor of 1.05 for the customer's pricing pattern.
func setupPricingData(t *testing.T, app *testApp, token string) pricingFixture {
	t.Helper()

	rec := app.request("POST", "/api/v1/raw-materials",
		`{"code":"RM-TERM","name":"Terminal Lug","item_group":"TERMINALS"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rawMaterialID := parseJSON(t, rec)["raw_material"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/products",
		`{"code":"FG-1000","name":"Cable Assembly"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	productID := parseJSON(t, rec)["product"].(map[string]interface{})["id"].(string)

	body := fmt.Sprintf(`{"lines":[{"raw_material_id":%q,"quantity":"10"}]}`, rawMaterialID)
	rec = app.request("PUT", "/api/v1/products/"+productID+"/bom", body, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("POST", "/api/v1/customers",
		`{"code":"CUST-1","name":"Siam Electric","pricing_pattern":"DOMESTIC","currency":"THB"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	customerID := parseJSON(t, rec)["customer"].(map[string]interface{})["id"].(string)

	app.createApprovedRecord(t, token, "standard_price",
		`{"natural_key":"RM-TERM","value":"12.00","currency":"THB"}`)
	app.createApprovedRecord(t, token, "scrap_allowance",
		`{"natural_key":"TERMINALS","value":"0.05"}`)
	app.createApprovedRecord(t, token, "selling_factor",
		`{"natural_key":"DOMESTIC","value":"1.05"}`)

	return pricingFixture{
		customerID:    customerID,
		productID:     productID,
		rawMaterialID: rawMaterialID,
	}
}

// TestCalculationFlow prices a product end to end and checks the frozen
// snapshot math: 12.00 * 10 * 1.05 scrap = 126.00 material cost, * 1.05
// selling factor = 132.30 per unit, * 100 units = 13230.00.
func TestCalculationFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "sales@example.com", "password123")
	fixture := setupPricingData(t, app, token)

	body := fmt.Sprintf(`{"customer_id":%q,"product_id":%q,"quantity":"100","target_currency":"THB"}`,
		fixture.customerID, fixture.productID)
	rec := app.request("POST", "/api/v1/calculations", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	snapshot := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	snapshotID := snapshot["id"].(string)

	assert.Equal(t, "CUST-1", snapshot["customer_code"])
	assert.Equal(t, "FG-1000", snapshot["product_code"])
	assert.Equal(t, float64(1), snapshot["bom_version"])
	assert.Equal(t, "THB", snapshot["target_currency"])
	assertDecimal(t, "126.00", snapshot["material_cost"])
	assertDecimal(t, "132.30", snapshot["unit_selling_price"])
	assertDecimal(t, "13230.00", snapshot["total_selling_price"])

	lines := snapshot["lines"].([]interface{})
	require.Len(t, lines, 1)
	line := lines[0].(map[string]interface{})
	assert.Equal(t, "RM-TERM", line["raw_material_code"])
	assert.Equal(t, "standard_price", line["method"])
	assertDecimal(t, "10", line["quantity"])
	assertDecimal(t, "0.05", line["scrap_pct"])
	assertDecimal(t, "10.5", line["adjusted_quantity"])
	assertDecimal(t, "126.00", line["line_cost"])

	// Each resolution records the record it pinned, so the snapshot can be
	// audited against master-data history later.
	stdRef := line["standard_price"].(map[string]interface{})
	assert.NotEmpty(t, stdRef["record_id"])
	assert.Equal(t, float64(1), stdRef["version"])

	factorRef := snapshot["selling_factor"].(map[string]interface{})
	assert.NotEmpty(t, factorRef["record_id"])
	assertDecimal(t, "1.05", factorRef["value"])

	// Same-currency subtotals still get an identity conversion row.
	conversions := snapshot["conversions"].([]interface{})
	require.Len(t, conversions, 1)
	conversion := conversions[0].(map[string]interface{})
	assert.Equal(t, "THB", conversion["source_currency"])
	assertDecimal(t, "126.00", conversion["source_amount"])
	assertDecimal(t, "126.00", conversion["target_amount"])

	// The snapshot reads back with its children intact.
	rec = app.request("GET", "/api/v1/calculations/"+snapshotID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	assertDecimal(t, "13230.00", fetched["total_selling_price"])
	require.Len(t, fetched["lines"].([]interface{}), 1)
	require.Len(t, fetched["conversions"].([]interface{}), 1)
}

// TestCalculationCrossCurrencyFlow prices a product whose costs are in a
// different currency than the customer's target currency.
func TestCalculationCrossCurrencyFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "sales@example.com", "password123")

	rec := app.request("POST", "/api/v1/raw-materials",
		`{"code":"RM-CU","name":"Copper Rod","item_group":"COPPER"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	rawMaterialID := parseJSON(t, rec)["raw_material"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/products", `{"code":"FG-2000","name":"Busbar"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	productID := parseJSON(t, rec)["product"].(map[string]interface{})["id"].(string)

	body := fmt.Sprintf(`{"lines":[{"raw_material_id":%q,"quantity":"1"}]}`, rawMaterialID)
	rec = app.request("PUT", "/api/v1/products/"+productID+"/bom", body, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("POST", "/api/v1/customers",
		`{"code":"CUST-2","name":"Thai Cable","pricing_pattern":"DOMESTIC","currency":"THB"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	customerID := parseJSON(t, rec)["customer"].(map[string]interface{})["id"].(string)

	// Costs resolve in USD; the customer buys in THB.
	app.createApprovedRecord(t, token, "standard_price",
		`{"natural_key":"RM-CU","value":"10.00","currency":"USD"}`)
	app.createApprovedRecord(t, token, "selling_factor",
		`{"natural_key":"DOMESTIC","value":"1.00"}`)

	body = fmt.Sprintf(`{"customer_id":%q,"product_id":%q,"quantity":"1","target_currency":"THB"}`,
		customerID, productID)

	// Without an exchange rate the calculation must fail atomically.
	rec = app.request("POST", "/api/v1/calculations", body, token)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, "MISSING_RATE", errorCode(t, rec))

	rec = app.request("GET", "/api/v1/calculations", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), parseJSON(t, rec)["total_items"], "failed calculation must not leave a snapshot")

	// With the rate approved the same request succeeds.
	app.createApprovedRecord(t, token, "exchange_rate",
		`{"natural_key":"USD-THB","value":"35.00","currency":"THB"}`)

	rec = app.request("POST", "/api/v1/calculations", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snapshot := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	assertDecimal(t, "350.00", snapshot["total_selling_price"])

	conversions := snapshot["conversions"].([]interface{})
	require.Len(t, conversions, 1)
	conversion := conversions[0].(map[string]interface{})
	assert.Equal(t, "USD", conversion["source_currency"])
	assertDecimal(t, "10.00", conversion["source_amount"])
	assertDecimal(t, "350.00", conversion["target_amount"])
	rateRef := conversion["exchange_rate"].(map[string]interface{})
	assertDecimal(t, "35.00", rateRef["value"])
	assert.NotEmpty(t, rateRef["record_id"])
}

// TestCalculationSnapshotImmutability verifies that approving new master
// data never changes an existing snapshot.
func TestCalculationSnapshotImmutability(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "sales@example.com", "password123")
	fixture := setupPricingData(t, app, token)

	body := fmt.Sprintf(`{"customer_id":%q,"product_id":%q,"quantity":"100","target_currency":"THB"}`,
		fixture.customerID, fixture.productID)
	rec := app.request("POST", "/api/v1/calculations", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	firstID := parseJSON(t, rec)["snapshot"].(map[string]interface{})["id"].(string)

	// Revise the standard price and approve the revision.
	base := "/api/v1/master-data/standard_price"
	rec = app.request("GET", base+"/active?key=RM-TERM", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	activeID := parseJSON(t, rec)["record"].(map[string]interface{})["id"].(string)

	rec = app.request("PUT", base+"/"+activeID, `{"value":"15.00"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	draftID := parseJSON(t, rec)["record"].(map[string]interface{})["id"].(string)
	rec = app.request("POST", base+"/"+draftID+"/approve", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	// The old snapshot still carries the old numbers.
	rec = app.request("GET", "/api/v1/calculations/"+firstID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	snapshot := parseJSON(t, rec)["snapshot"].(map[string]interface{})
	assertDecimal(t, "13230.00", snapshot["total_selling_price"])

	// A fresh calculation picks up the revised price: 15.00 * 10 * 1.05
	// scrap * 1.05 factor * 100 = 16537.50.
	rec = app.request("POST", "/api/v1/calculations", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snapshot = parseJSON(t, rec)["snapshot"].(map[string]interface{})
	assert.NotEqual(t, firstID, snapshot["id"])
	assertDecimal(t, "16537.50", snapshot["total_selling_price"])

	rec = app.request("GET", "/api/v1/calculations?customer_id="+fixture.customerID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), parseJSON(t, rec)["total_items"])
}
