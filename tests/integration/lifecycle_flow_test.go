package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMasterDataLifecycleFlow drives a record through its full lifecycle
// over the HTTP surface: draft, approval, revision, rollback.
func TestMasterDataLifecycleFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "pricing@example.com", "password123")

	base := "/api/v1/master-data/exchange_rate"

	// Create a draft.
	rec := app.request("POST", base,
		`{"natural_key":"USD-THB","value":"35.00","currency":"THB","change_reason":"initial rate"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := parseJSON(t, rec)["record"].(map[string]interface{})
	recordID := record["id"].(string)
	assert.Equal(t, "draft", record["status"])
	assert.Equal(t, float64(1), record["version"])

	// A draft is invisible to resolution.
	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Approve it.
	rec = app.request("POST", base+"/"+recordID+"/approve", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assert.Equal(t, "active", record["status"])
	assert.NotEmpty(t, record["approved_by"])

	// Now it resolves.
	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "35.00", record["value"])

	// Updating the active record spawns a new draft at version 2.
	rec = app.request("PUT", base+"/"+recordID,
		`{"value":"36.50","change_reason":"rate moved"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	draft := parseJSON(t, rec)["record"].(map[string]interface{})
	draftID := draft["id"].(string)
	assert.NotEqual(t, recordID, draftID)
	assert.Equal(t, "draft", draft["status"])
	assert.Equal(t, float64(2), draft["version"])

	// The active value is untouched until the draft is approved.
	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "35.00", record["value"])

	// Approving version 2 archives version 1 in the same transaction.
	rec = app.request("POST", base+"/"+draftID+"/approve", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "36.50", record["value"])

	rec = app.request("GET", base+"/"+recordID+"/history", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	history := parseJSON(t, rec)["records"].([]interface{})
	require.Len(t, history, 2)
	newest := history[0].(map[string]interface{})
	oldest := history[1].(map[string]interface{})
	assert.Equal(t, float64(2), newest["version"])
	assert.Equal(t, "active", newest["status"])
	assert.Equal(t, float64(1), oldest["version"])
	assert.Equal(t, "archived", oldest["status"])

	// Roll version 1 back. This opens a fresh draft at version 3 carrying
	// the old value; it still needs approval before it takes effect.
	rec = app.request("POST", base+"/"+recordID+"/rollback", "", token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	reopened := parseJSON(t, rec)["record"].(map[string]interface{})
	assert.Equal(t, "draft", reopened["status"])
	assert.Equal(t, float64(3), reopened["version"])
	assertDecimal(t, "35.00", reopened["value"])

	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "36.50", record["value"])

	rec = app.request("POST", base+"/"+reopened["id"].(string)+"/approve", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("GET", base+"/active?key=USD-THB", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "35.00", record["value"])
	assert.Equal(t, float64(3), record["version"])
}

// TestMasterDataGroupOverrideFlow verifies that a customer-group override
// and the global default coexist and resolve independently.
func TestMasterDataGroupOverrideFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "pricing@example.com", "password123")

	base := "/api/v1/master-data/selling_factor"

	app.createApprovedRecord(t, token, "selling_factor",
		`{"natural_key":"EXPORT","value":"1.08"}`)
	app.createApprovedRecord(t, token, "selling_factor",
		`{"natural_key":"EXPORT","customer_group_id":"CG-VIP","value":"1.02"}`)

	rec := app.request("GET", base+"/active?key=EXPORT", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record := parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "1.08", record["value"])

	rec = app.request("GET", base+"/active?key=EXPORT&customer_group_id=CG-VIP", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "1.02", record["value"])

	// A group with no override of its own falls back to the global default.
	rec = app.request("GET", base+"/active?key=EXPORT&customer_group_id=CG-OTHER", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	record = parseJSON(t, rec)["record"].(map[string]interface{})
	assertDecimal(t, "1.08", record["value"])
}

// TestMasterDataConflictFlow verifies the draft-exclusivity rules over HTTP.
func TestMasterDataConflictFlow(t *testing.T) {
	app := setupApp(t)
	token := app.registerUser(t, "pricing@example.com", "password123")

	base := "/api/v1/master-data/scrap_allowance"

	rec := app.request("POST", base, `{"natural_key":"COPPER","value":"0.05"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	firstID := parseJSON(t, rec)["record"].(map[string]interface{})["id"].(string)

	// A second draft for the same key is rejected.
	rec = app.request("POST", base, `{"natural_key":"COPPER","value":"0.07"}`, token)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_DRAFT", errorCode(t, rec))

	// Re-approving an already active record fails.
	rec = app.request("POST", base+"/"+firstID+"/approve", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.request("POST", base+"/"+firstID+"/approve", "", token)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, rec))

	// Only drafts are deletable.
	rec = app.request("DELETE", base+"/"+firstID, "", token)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = app.request("PUT", base+"/"+firstID, `{"value":"0.06"}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	draftID := parseJSON(t, rec)["record"].(map[string]interface{})["id"].(string)

	rec = app.request("DELETE", base+"/"+draftID, "", token)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.request("GET", fmt.Sprintf("%s?natural_key=COPPER&status=draft", base), "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	result := parseJSON(t, rec)
	assert.Equal(t, float64(0), result["total_items"])
}

// TestMasterDataRequiresAuth verifies that the master-data surface is
// closed to unauthenticated callers.
func TestMasterDataRequiresAuth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/master-data/lme_price", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("POST", "/api/v1/master-data/lme_price",
		`{"natural_key":"COPPER","value":"9.50","currency":"USD"}`, "invalid-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
