package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/monitor"
	"github.com/shelfwatch/shelfwatch/internal/monitor/alerting"
	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/auth"
)

func newTestRouter(t *testing.T) (*mux.Router, *store.MemoryStore, *monitor.Engine) {
	t.Helper()

	st := store.NewMemoryStore()
	clock := detector.SystemClock()
	sched := detector.SystemScheduler()
	gen := alerting.NewGenerator(clock, sched, st, nil)
	engine := monitor.NewEngine(st, gen, nil, clock, sched)
	t.Cleanup(engine.Close)

	handler := NewMonitorHandler(st, engine, clock)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router)
	return router, st, engine
}

func seedProducts(t *testing.T, st *store.MemoryStore, engine *monitor.Engine, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= n; i++ {
		require.NoError(t, st.SetProduct(ctx, domain.ProductID(i), domain.DefaultProductDoc(i)))
	}
	tree, err := st.Snapshot(ctx)
	require.NoError(t, err)
	engine.Apply(ctx, tree)
}

func doRequest(router *mux.Router, method, path string) (*httptest.ResponseRecorder, Response) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestListProductsEndpoint(t *testing.T) {
	router, st, engine := newTestRouter(t)
	seedProducts(t, st, engine, 3)

	rec, resp := doRequest(router, http.MethodGet, "/api/products")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	products, ok := resp.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, products, 3)
}

func TestMutationsRequireAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/products"},
		{http.MethodDelete, "/api/products/product1"},
		{http.MethodPatch, "/api/products/product1/name"},
		{http.MethodDelete, "/api/alerts"},
		{http.MethodDelete, "/api/sales"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	claims := auth.Claims{
		UserID:   1,
		Username: "operator",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestDestructiveRoutesRequireAdminRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router, st, engine := newTestRouter(t)
	seedProducts(t, st, engine, 3)

	paths := []struct{ method, path string }{
		{http.MethodDelete, "/api/products/product3"},
		{http.MethodDelete, "/api/refills"},
		{http.MethodDelete, "/api/alerts"},
		{http.MethodDelete, "/api/sales"},
	}
	operator := mintToken(t, "operator")
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		req.Header.Set("Authorization", "Bearer "+operator)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", p.method, p.path)
	}

	admin := mintToken(t, "admin")
	req := httptest.NewRequest(http.MethodDelete, "/api/sales", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadEndpointsArePublic(t *testing.T) {
	router, st, engine := newTestRouter(t)
	seedProducts(t, st, engine, 2)

	for _, path := range []string{"/api/alerts", "/api/sales", "/api/stats", "/api/theft", "/health"} {
		rec, resp := doRequest(router, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.True(t, resp.Success, path)
	}
}

func TestDownloadReportRejectsUnknownPeriod(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec, resp := doRequest(router, http.MethodGet, "/api/reports/yearly")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestDownloadReportReturnsSpreadsheet(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/daily", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales-data-log-daily-")
	assert.NotEmpty(t, rec.Body.Bytes())
}
