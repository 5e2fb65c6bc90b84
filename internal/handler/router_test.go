package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/auth"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/model"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/pricing"
	"github.com/Clypper-Technology/clypper-plugins-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router   *gin.Engine
	services Services
	product  *model.Product
	category *model.Category
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "handler.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&model.Role{}, &model.User{}, &model.Customer{},
		&model.Category{}, &model.Product{},
		&model.RuleRecord{}, &model.RuleChangeDB{},
	))

	store := service.NewGormRuleStore(db)
	audit := service.NewGormAuditLog(db)
	roles := service.NewRoleService(db, store, audit)
	catalog := service.NewProductService(db)
	resolver := pricing.NewResolver(time.UTC)
	users := service.NewUserService(db)
	authSvc, err := auth.NewService(users, "handler-test-secret", time.Hour)
	require.NoError(t, err)
	authz, err := service.NewAuthorizationService()
	require.NoError(t, err)

	s := Services{
		Auth:     authSvc,
		Authz:    authz,
		Users:    users,
		Roles:    roles,
		Rules:    service.NewRuleService(store, audit, roles, catalog, resolver),
		Products: catalog,
		Pricing:  service.NewPricingService(store, pricing.NewRuleCache(time.Minute), resolver, catalog, 2),
	}

	require.NoError(t, roles.EnsureCoreRoles(ctx))
	_, err = roles.CreateRole(ctx, &model.RoleRequest{Name: "Wholesaler"})
	require.NoError(t, err)
	for _, u := range []service.CreateUserRequest{
		{Username: "alice", Password: "password123", Email: "alice@example.com", Role: model.RoleAdministrator},
		{Username: "bob", Password: "password123", Email: "bob@example.com", Role: "wholesaler"},
	} {
		req := u
		_, err := users.CreateUser(ctx, &req)
		require.NoError(t, err)
	}

	category, err := catalog.CreateCategory(ctx, &model.CategoryRequest{Name: "Tools"})
	require.NoError(t, err)
	product, err := catalog.CreateProduct(ctx, &model.ProductRequest{
		Name:         "Drill",
		SKU:          "DR-1",
		RegularPrice: decimal.RequireFromString("100"),
		CategoryIDs:  []int64{category.ID},
	}, "test")
	require.NoError(t, err)

	return &testServer{
		router:   NewRouter(s),
		services: s,
		product:  product,
		category: category,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		var raw []byte
		switch b := body.(type) {
		case string:
			raw = []byte(b)
		default:
			var err error
			raw, err = json.Marshal(b)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Username: username, Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const wholesalerRule = `{"role":"wholesaler","rule_active":"on","reduce_regular_type":"percent","reduce_regular_value":"10"}`

func TestLogin(t *testing.T) {
	ts := newTestServer(t)

	assert.NotEmpty(t, ts.login(t, "alice"))

	w := ts.do(t, http.MethodPost, "/api/auth/login", "", model.LoginRequest{Username: "alice", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := ts.login(t, "bob")

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/logout", "", nil).Code)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	body := model.RegistrationRequest{
		Username:    "carl",
		Password:    "secret99",
		Email:       "carl@example.dk",
		CompanyName: "Carl ApS",
		CVR:         "DK 13585628",
	}
	w := ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	body.Username = "dora"
	body.CVR = "12345678"
	w = ts.do(t, http.MethodPost, "/api/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuleEndpoints_Authorization(t *testing.T) {
	ts := newTestServer(t)
	bob := ts.login(t, "bob")

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/rules", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/rules", bob, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/api/rules", bob, wholesalerRule).Code)
}

func TestRuleEndpoints_Lifecycle(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "alice")

	w := ts.do(t, http.MethodPost, "/api/rules", admin, wholesalerRule)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "wholesaler", created["role"])
	assert.Equal(t, float64(1), created["version"])
	id := int(created["id"].(float64))

	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/rules", admin, wholesalerRule).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/rules", admin, `{"rule_active":"on"}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/rules", admin, `{"role":"nobody"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/rules", admin,
		`{"role":"wholesaler","reduce_regular_type":"half_off","reduce_regular_value":"50"}`).Code)

	path := "/api/rules/" + itoa(id)

	w = ts.do(t, http.MethodGet, path, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	update := `{"version":1,"rule_active":"on","reduce_regular_type":"percent","reduce_regular_value":"20"}`
	w = ts.do(t, http.MethodPut, path, admin, update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), decode(t, w)["version"])

	w = ts.do(t, http.MethodPut, path, admin, update)
	assert.Equal(t, http.StatusConflict, w.Code, "stale version")

	products := map[string]interface{}{
		"version": 2,
		"products": []map[string]interface{}{
			{"id": ts.product.ID, "adjust_type": "fixed_set", "adjust_value": "42"},
		},
	}
	w = ts.do(t, http.MethodPut, path+"/products", admin, products)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Drill", body["products"].([]interface{})[0].(map[string]interface{})["name"])

	w = ts.do(t, http.MethodGet, path+"/explain?product_id="+itoa(int(ts.product.ID))+"&quantity=3", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, "42", result["price"])
	assert.Equal(t, "product", result["scope"])

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, path+"/explain", admin, nil).Code)

	w = ts.do(t, http.MethodGet, path+"/history", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["total"])

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/rules/abc", admin, nil).Code)
}

func TestRuleEndpoints_CopyAndFromCategory(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "alice")
	ctx := context.Background()

	source, err := ts.services.Rules.CreateRule(ctx, &model.Rule{
		RoleSlug: "wholesaler",
		Active:   true,
	}, "test")
	require.NoError(t, err)
	target, err := ts.services.Rules.CreateRule(ctx, &model.Rule{RoleSlug: model.RoleCustomer}, "test")
	require.NoError(t, err)

	from := map[string]interface{}{
		"category_id":  ts.category.ID,
		"adjust_type":  "percent",
		"adjust_value": "5",
	}
	w := ts.do(t, http.MethodPost, "/api/rules/"+itoa(int(source.ID))+"/products/from-category", admin, from)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["products"], 1)

	copyPath := "/api/rules/" + itoa(int(source.ID)) + "/copy"
	w = ts.do(t, http.MethodPost, copyPath, admin, map[string]interface{}{"target_rule_id": target.ID, "type": "everything"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, copyPath, admin, map[string]interface{}{"target_rule_id": target.ID, "type": "products"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	copied := decode(t, w)
	assert.Equal(t, model.RoleCustomer, copied["role"])
	assert.Len(t, copied["products"], 1)

	w = ts.do(t, http.MethodPost, copyPath, admin, map[string]interface{}{"target_rule_id": 999, "type": "all"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoleEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "alice")

	w := ts.do(t, http.MethodPost, "/api/roles", admin, model.RoleRequest{Name: "Retail Partner"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "retail-partner", decode(t, w)["slug"])

	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/roles", admin, model.RoleRequest{Name: "Retail Partner"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/roles", admin, model.RoleRequest{}).Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/roles/retail-partner", admin, nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, "/api/roles/"+model.RoleCustomer, admin, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/roles/retail-partner", admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/roles/retail-partner", admin, nil).Code)

	w = ts.do(t, http.MethodGet, "/api/roles", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decode(t, w)["total"])
}

func TestCatalogEndpoints(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.login(t, "alice")
	bob := ts.login(t, "bob")

	w := ts.do(t, http.MethodGet, "/api/products/search?q=dri", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/products/search?q=", bob, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/products/search?q=dri", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/api/categories", bob, model.CategoryRequest{Name: "Paint"}).Code)

	w = ts.do(t, http.MethodPost, "/api/categories", admin, model.CategoryRequest{Name: "Paint"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/products", admin, `{"name":"Saw","regular_price":"25.50"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(decode(t, w)["id"].(float64))

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/products/"+itoa(id), bob, nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/products/"+itoa(id), admin, `{"name":"Hand saw","regular_price":"27"}`).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/products/"+itoa(id), admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/products/"+itoa(id), bob, nil).Code)

	w = ts.do(t, http.MethodGet, "/api/categories", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["total"])
}

func TestProductListing_HidesForRole(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.services.Rules.CreateRule(ctx, &model.Rule{
		RoleSlug:     "wholesaler",
		Active:       true,
		ProductRules: []model.ProductRule{{ProductID: ts.product.ID, Hidden: true}},
	}, "test")
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total_items"])

	bob := ts.login(t, "bob")
	w = ts.do(t, http.MethodGet, "/api/products", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total_items"])

	path := "/api/prices/" + itoa(int(ts.product.ID))
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, path, bob, nil).Code)

	quote := model.QuoteRequest{Lines: []model.QuoteLineRequest{{ProductID: ts.product.ID, Quantity: 1}}}
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/prices/quote", bob, quote).Code)
}

func TestPricingEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	_, err := ts.services.Rules.CreateRule(ctx, &model.Rule{
		RoleSlug:         "wholesaler",
		Active:           true,
		GlobalAdjustment: model.NewAdjustment(model.KindPercent, "10"),
	}, "test")
	require.NoError(t, err)

	path := "/api/prices/" + itoa(int(ts.product.ID))

	w := ts.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", decode(t, w)["unit_price"], "guests without a rule pay the regular price")

	bob := ts.login(t, "bob")
	w = ts.do(t, http.MethodGet, path+"?quantity=2", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	line := decode(t, w)
	assert.Equal(t, "90", line["unit_price"])
	assert.Equal(t, "180", line["line_total"])

	w = ts.do(t, http.MethodGet, path, "expired-or-forged", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "100", decode(t, w)["unit_price"])

	quote := model.QuoteRequest{Lines: []model.QuoteLineRequest{{ProductID: ts.product.ID, Quantity: 3}}}
	w = ts.do(t, http.MethodPost, "/api/prices/quote", bob, quote)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "270", decode(t, w)["total"])

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/prices/quote", bob, `{"lines":[]}`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/prices/9999", bob, nil).Code)
}

func TestPermissionsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/auth/permissions?resource=rules&action=write", ts.login(t, "bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	check := decode(t, w)["check"].(map[string]interface{})
	assert.Equal(t, false, check["allowed"])

	w = ts.do(t, http.MethodGet, "/api/auth/permissions?resource=rules&action=write", ts.login(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	check = decode(t, w)["check"].(map[string]interface{})
	assert.Equal(t, true, check["allowed"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/health", "", nil).Code)
}
