package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
)

const (
	testSecret = "test-secret"
	testIssuer = "smc-auth"
)

func sign(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func vendorClaims(userID, businessID int64) Claims {
	return Claims{
		Role:              RoleVendor,
		BusinessProfileID: ptr.Ptr(businessID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

// router собирает цепочку Auth -> RequireRole -> CanAccessBusiness
func router() http.Handler {
	r := mux.NewRouter()
	r.Use(Auth(testSecret, testIssuer, logger.Nop()))
	sub := r.PathPrefix("/businesses/{businessId}").Subrouter()
	sub.Use(RequireRole(RoleVendor, RoleAdmin), CanAccessBusiness)
	sub.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		p, _ := GetPrincipal(r.Context())
		w.Header().Set("X-User", strconv.FormatInt(p.UserID, 10))
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func do(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth_VendorOwnBusiness(t *testing.T) {
	rec := do(router(), "/businesses/3/bookings", sign(t, vendorClaims(42, 3), testSecret))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("X-User"))
}

func TestAuth_Rejections(t *testing.T) {
	expired := vendorClaims(42, 3)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	wrongIssuer := vendorClaims(42, 3)
	wrongIssuer.Issuer = "someone-else"

	noBusiness := vendorClaims(42, 3)
	noBusiness.BusinessProfileID = nil

	customer := vendorClaims(42, 3)
	customer.Role = RoleCustomer
	customer.BusinessProfileID = nil

	admin := vendorClaims(1, 0)
	admin.Role = RoleAdmin
	admin.BusinessProfileID = nil

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no token", "/businesses/3/bookings", "", http.StatusUnauthorized},
		{"bad signature", "/businesses/3/bookings", sign(t, vendorClaims(42, 3), "other"), http.StatusUnauthorized},
		{"expired", "/businesses/3/bookings", sign(t, expired, testSecret), http.StatusUnauthorized},
		{"wrong issuer", "/businesses/3/bookings", sign(t, wrongIssuer, testSecret), http.StatusUnauthorized},
		{"vendor without business", "/businesses/3/bookings", sign(t, noBusiness, testSecret), http.StatusUnauthorized},
		{"foreign business", "/businesses/4/bookings", sign(t, vendorClaims(42, 3), testSecret), http.StatusForbidden},
		{"customer on vendor route", "/businesses/3/bookings", sign(t, customer, testSecret), http.StatusForbidden},
		{"admin any business", "/businesses/4/bookings", sign(t, admin, testSecret), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(router(), tt.path, tt.token).Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "6f1c2a44-3b4e-4d0e-9a56-2f0e4b9b7c11")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "6f1c2a44-3b4e-4d0e-9a56-2f0e4b9b7c11", seen)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("user:1"))
	assert.True(t, l.Allow("user:1"))
	assert.False(t, l.Allow("user:1"))
	assert.True(t, l.Allow("user:2"), "отдельный бакет на пользователя")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("user:1"))

	now = now.Add(limiterIdleTTL + time.Second)
	l.Allow("user:3")
	assert.NotContains(t, l.limiters, "user:2")
}

type recordedRequest struct {
	method, path string
	status       int
}

type fakeHTTPMetrics struct{ requests []recordedRequest }

func (f *fakeHTTPMetrics) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	f.requests = append(f.requests, recordedRequest{method, path, status})
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := &fakeHTTPMetrics{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/bookings/{bookingId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bookings/15", nil))

	require.Len(t, m.requests, 1)
	assert.Equal(t, recordedRequest{http.MethodGet, "/bookings/{bookingId}", http.StatusNotFound}, m.requests[0])
}
