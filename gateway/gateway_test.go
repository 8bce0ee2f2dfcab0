package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/figueredofxx/katalogo.digital/pkg/notify"
	"github.com/figueredofxx/katalogo.digital/pkg/orders"
	"github.com/figueredofxx/katalogo.digital/pkg/repository"
	"github.com/figueredofxx/katalogo.digital/pkg/shipping"
	"github.com/figueredofxx/katalogo.digital/pkg/tenancy"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type testEnv struct {
	gateway *Gateway
	store   *repository.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "test", Host: "127.0.0.1", Port: 0},
		Platform: config.PlatformConfig{
			BaseDomain: "katalogo.digital",
			AdminHosts: []string{"app.katalogo.digital"},
			Backend:    "memory",
		},
		// Nothing listens here; cache misses degrade to direct reads.
		Redis: config.RedisConfig{Addr: "127.0.0.1:1"},
	}

	store := repository.NewMemoryStore()
	cache := repository.NewCache(&cfg.Redis)
	resolver := tenancy.NewResolver(store.Tenants(), cfg.Platform.BaseDomain, cfg.Platform.AdminHosts)
	distance := shipping.DistanceFunc(func(context.Context, string, models.Address) (decimal.Decimal, error) {
		return decimal.Zero, shipping.ErrUnresolvable
	})
	orderSvc := orders.NewService(store.Orders(), distance, zap.NewNop())
	notifier := notify.NewNotifier(zap.NewNop())
	t.Cleanup(notifier.Shutdown)

	gw := NewGateway(cfg, zap.NewNop(), store, cache, resolver, orderSvc, notifier)
	gw.SetupRoutes()
	return &testEnv{gateway: gw, store: store}
}

func (e *testEnv) seedTenant(t *testing.T, plan models.Plan) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{
		ID:                 "t1",
		Slug:               "loja-maria",
		Name:               "Loja da Maria",
		Plan:               plan,
		SubscriptionStatus: models.SubscriptionActive,
		DeliveryConfig: models.DeliveryConfig{
			Mode:       models.DeliveryModeFixed,
			FixedPrice: dec("8.00"),
		},
		CreatedAt: time.Now(),
	}
	require.NoError(t, e.store.Tenants().Create(context.Background(), tenant))
	return tenant
}

func (e *testEnv) seedProduct(t *testing.T, id, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       id,
		TenantID: "t1",
		Name:     name,
		Price:    dec(price),
		Active:   true,
	}
	require.NoError(t, e.store.Products().Create(context.Background(), product))
	return product
}

func (e *testEnv) do(method, path string, body interface{}, header map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.gateway.Router().ServeHTTP(w, req)
	return w
}

func adminHeaders() map[string]string {
	return map[string]string{"X-Tenant-ID": "t1"}
}

func TestRegisterTenant(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/api/tenants", gin.H{
		"name": "Loja Nova", "slug": "Loja-Nova", "whatsappNumber": "+5541988887777",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var tenant models.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenant))
	assert.Equal(t, "loja-nova", tenant.Slug)
	assert.Equal(t, models.PlanBasic, tenant.Plan)
	assert.Equal(t, models.SubscriptionTrial, tenant.SubscriptionStatus)
	require.NotNil(t, tenant.TrialEndsAt)

	// Same slug again conflicts.
	w = env.do(http.MethodPost, "/api/tenants", gin.H{"name": "Clone", "slug": "loja-nova"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Reserved labels never become slugs.
	w = env.do(http.MethodPost, "/api/tenants", gin.H{"name": "Nope", "slug": "admin"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorefrontBySlugAndSuspension(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, models.PlanBasic)
	env.seedProduct(t, "p1", "Camiseta", "49.90")

	w := env.do(http.MethodGet, "/api/public/store/loja-maria", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload storefrontPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "t1", payload.Tenant.ID)
	require.Len(t, payload.Products, 1)

	tenant.SubscriptionStatus = models.SubscriptionSuspended
	require.NoError(t, env.store.Tenants().Update(context.Background(), tenant))

	w = env.do(http.MethodGet, "/api/public/store/loja-maria", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCheckoutSnapshotsServerPrices(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)
	env.seedProduct(t, "p1", "Camiseta", "49.90")

	w := env.do(http.MethodPost, "/api/public/store/loja-maria/orders", gin.H{
		"customerName":   "Ana",
		"customerPhone":  "+5541999990000",
		"deliveryMethod": "delivery",
		"paymentMethod":  "pix",
		"address":        gin.H{"street": "Rua A", "number": "10", "neighborhood": "Centro"},
		"items":          []gin.H{{"productId": "p1", "quantity": 2}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, models.OrderPending, order.Status)
	// 2 * 49.90 + 8.00 fixed fee
	assert.Equal(t, "107.8", order.Total.String())
	require.Len(t, order.Items, 1)
	assert.Equal(t, "49.9", order.Items[0].UnitPrice.String())
}

func TestCheckoutRejectsUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	w := env.do(http.MethodPost, "/api/public/store/loja-maria/orders", gin.H{
		"customerName":   "Ana",
		"customerPhone":  "+5541999990000",
		"deliveryMethod": "pickup",
		"paymentMethod":  "pix",
		"items":          []gin.H{{"productId": "ghost", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRejectsMissingAddress(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)
	env.seedProduct(t, "p1", "Camiseta", "49.90")

	w := env.do(http.MethodPost, "/api/public/store/loja-maria/orders", gin.H{
		"customerName":   "Ana",
		"customerPhone":  "+5541999990000",
		"deliveryMethod": "delivery",
		"paymentMethod":  "pix",
		"items":          []gin.H{{"productId": "p1", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderStatusFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)
	env.seedProduct(t, "p1", "Camiseta", "49.90")

	w := env.do(http.MethodPost, "/api/public/store/loja-maria/orders", gin.H{
		"customerName":   "Ana",
		"customerPhone":  "+5541999990000",
		"deliveryMethod": "pickup",
		"paymentMethod":  "pix",
		"items":          []gin.H{{"productId": "p1", "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	statusPath := fmt.Sprintf("/api/admin/orders/%s/status", order.ID)

	// Accept shortcut jumps pending straight to preparing.
	w = env.do(http.MethodPatch, statusPath, gin.H{"status": "preparing"}, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Re-sending the same status is a conflict.
	w = env.do(http.MethodPatch, statusPath, gin.H{"status": "preparing"}, adminHeaders())
	assert.Equal(t, http.StatusConflict, w.Code)

	// Skipping ahead is a conflict too.
	w = env.do(http.MethodPatch, statusPath, gin.H{"status": "delivered"}, adminHeaders())
	assert.Equal(t, http.StatusConflict, w.Code)

	// Public tracking sees the updated timeline.
	w = env.do(http.MethodGet, "/api/public/orders/"+order.ID, nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tracked models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tracked))
	assert.Equal(t, models.OrderPreparing, tracked.Status)
	assert.Len(t, tracked.Timeline, 2)
}

func TestProductQuotaOnBasicPlan(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)
	for i := 0; i < 20; i++ {
		env.seedProduct(t, fmt.Sprintf("p%d", i), "Produto", "10.00")
	}

	w := env.do(http.MethodPost, "/api/admin/products", gin.H{
		"name": "Produto 21", "price": "10.00",
	}, adminHeaders())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSettingsCustomDomainGate(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	w := env.do(http.MethodPut, "/api/admin/settings", gin.H{
		"customDomain": "minhaloja.com.br",
	}, adminHeaders())
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Clearing is allowed on basic.
	w = env.do(http.MethodPut, "/api/admin/settings", gin.H{
		"customDomain": "",
	}, adminHeaders())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSettingsSlugChangeKeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanPro)

	w := env.do(http.MethodPut, "/api/admin/settings", gin.H{
		"slug": "loja-renomeada",
	}, adminHeaders())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tenant models.Tenant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tenant))
	assert.Equal(t, "loja-renomeada", tenant.Slug)
	require.Len(t, tenant.SlugHistory, 1)
	assert.Equal(t, "loja-maria", tenant.SlugHistory[0].Slug)
}

func TestReportsRequireProPlan(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	w := env.do(http.MethodGet, "/api/admin/reports", nil, adminHeaders())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRequiresKnownActiveTenant(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, models.PlanBasic)

	w := env.do(http.MethodGet, "/api/admin/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/admin/me", nil, map[string]string{"X-Tenant-ID": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tenant.SubscriptionStatus = models.SubscriptionSuspended
	require.NoError(t, env.store.Tenants().Update(context.Background(), tenant))
	w = env.do(http.MethodGet, "/api/admin/me", nil, adminHeaders())
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestSuperAdminRestrictedToPlatformHosts(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	req := httptest.NewRequest(http.MethodGet, "/api/super-admin/tenants", nil)
	req.Host = "loja-maria.katalogo.digital"
	w := httptest.NewRecorder()
	env.gateway.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/super-admin/tenants", nil)
	req.Host = "app.katalogo.digital"
	w = httptest.NewRecorder()
	env.gateway.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSuperAdminSuspendTenant(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	body, _ := json.Marshal(gin.H{"subscriptionStatus": "suspended"})
	req := httptest.NewRequest(http.MethodPatch, "/api/super-admin/tenants/t1/status", bytes.NewReader(body))
	req.Host = "app.katalogo.digital"
	w := httptest.NewRecorder()
	env.gateway.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// The public storefront is now unreachable.
	res := env.do(http.MethodGet, "/api/public/store/loja-maria", nil, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestInstallmentsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	tenant := env.seedTenant(t, models.PlanBasic)
	tenant.CreditCardInterestRate = dec("10")
	require.NoError(t, env.store.Tenants().Update(context.Background(), tenant))

	w := env.do(http.MethodGet, "/api/public/store/loja-maria/installments?price=100.00", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Installments []struct {
			Count          int             `json:"count"`
			PerInstallment decimal.Decimal `json:"perInstallment"`
			Total          decimal.Decimal `json:"total"`
		} `json:"installments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Installments, 12)
	assert.Equal(t, "100", resp.Installments[0].Total.String())
	assert.Equal(t, "110", resp.Installments[1].Total.String())

	w = env.do(http.MethodGet, "/api/public/store/loja-maria/installments?price=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)

	w := env.do(http.MethodGet, "/api/public/resolve?host=loja-maria.katalogo.digital", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"t1"`)

	w = env.do(http.MethodGet, "/api/public/resolve?host=app.katalogo.digital", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin":true`)

	w = env.do(http.MethodGet, "/api/public/resolve?host=www.katalogo.digital", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCustomerOrderHistory(t *testing.T) {
	env := newTestEnv(t)
	env.seedTenant(t, models.PlanBasic)
	env.seedProduct(t, "p1", "Camiseta", "49.90")

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodPost, "/api/public/store/loja-maria/orders", gin.H{
			"customerName":   "Ana",
			"customerPhone":  "+5541999990000",
			"deliveryMethod": "pickup",
			"paymentMethod":  "pix",
			"items":          []gin.H{{"productId": "p1", "quantity": 1}},
		}, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := env.do(http.MethodGet, "/api/public/customer/orders?tenant=t1&phone=%2B5541999990000", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}
