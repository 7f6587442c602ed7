package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pricebook/internal/handlers"
	"pricebook/internal/logger"
	"pricebook/internal/middleware"
	"pricebook/internal/models"
	"pricebook/internal/services"
	"pricebook/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Customer{},
		&models.RawMaterial{},
		&models.Product{},
		&models.BOMLine{},
		&models.MasterDataRecord{},
		&models.PriceCalculationSnapshot{},
		&models.SnapshotLine{},
		&models.SnapshotConversion{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	masterDataService := services.NewMasterDataService(db)
	resolverService := services.NewResolverService(masterDataService)
	customerService := services.NewCustomerService(db)
	productService := services.NewProductService(db)
	costingService := services.NewCostingService(resolverService)
	calculationService := services.NewCalculationService(db, resolverService, costingService, customerService, productService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	masterDataHandler := handlers.NewMasterDataHandler(masterDataService, auditService)
	customerHandler := handlers.NewCustomerHandler(customerService, auditService)
	productHandler := handlers.NewProductHandler(productService, auditService)
	calculationHandler := handlers.NewCalculationHandler(calculationService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	masterData := protected.Group("/master-data/:category")
	masterData.POST("", masterDataHandler.CreateRecord)
	masterData.GET("", masterDataHandler.ListRecords)
	masterData.GET("/active", masterDataHandler.GetActive)
	masterData.PUT("/:id", masterDataHandler.UpdateRecord)
	masterData.DELETE("/:id", masterDataHandler.DeleteRecord)
	masterData.POST("/:id/approve", masterDataHandler.ApproveRecord)
	masterData.POST("/:id/rollback", masterDataHandler.RollbackRecord)
	masterData.GET("/:id/history", masterDataHandler.GetHistory)

	customers := protected.Group("/customers")
	customers.POST("", customerHandler.CreateCustomer)
	customers.GET("", customerHandler.ListCustomers)
	customers.GET("/:id", customerHandler.GetCustomer)

	products := protected.Group("/products")
	products.POST("", productHandler.CreateProduct)
	products.GET("", productHandler.ListProducts)
	products.GET("/:id", productHandler.GetProduct)
	products.PUT("/:id/bom", productHandler.SetBOM)

	rawMaterials := protected.Group("/raw-materials")
	rawMaterials.POST("", productHandler.CreateRawMaterial)
	rawMaterials.GET("", productHandler.ListRawMaterials)
	rawMaterials.GET("/:id", productHandler.GetRawMaterial)

	calculations := protected.Group("/calculations")
	calculations.POST("", calculationHandler.Calculate)
	calculations.GET("", calculationHandler.ListSnapshots)
	calculations.GET("/:id", calculationHandler.GetSnapshot)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// assertDecimal compares a decimal JSON field against an expected value.
// Comparison is by numeric value so storage-level scale differences do not
// matter.
func assertDecimal(t *testing.T, want string, got interface{}) {
	t.Helper()
	gotStr, ok := got.(string)
	if !ok {
		t.Fatalf("expected decimal string, got %T (%v)", got, got)
	}
	wantDec, err := decimal.NewFromString(want)
	if err != nil {
		t.Fatalf("bad expected decimal %q: %v", want, err)
	}
	gotDec, err := decimal.NewFromString(gotStr)
	if err != nil {
		t.Fatalf("bad decimal in response %q: %v", gotStr, err)
	}
	if !wantDec.Equal(gotDec) {
		t.Errorf("expected decimal %s, got %s", want, gotStr)
	}
}

// errorCode extracts the error code from an error envelope response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no error envelope: %s", rec.Body.String())
	}
	return errObj["code"].(string)
}

// registerUser registers and logs in a user, returning the token.
func (app *testApp) registerUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	body = fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec = app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// createApprovedRecord drives a draft through creation and approval over
// the HTTP surface and returns the active record's ID.
func (app *testApp) createApprovedRecord(t *testing.T, token, category, body string) string {
	t.Helper()

	rec := app.request("POST", "/api/v1/master-data/"+category, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %s record failed: %d %s", category, rec.Code, rec.Body.String())
	}
	record := parseJSON(t, rec)["record"].(map[string]interface{})
	id := record["id"].(string)

	rec = app.request("POST", "/api/v1/master-data/"+category+"/"+id+"/approve", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve %s record failed: %d %s", category, rec.Code, rec.Body.String())
	}
	return id
}
