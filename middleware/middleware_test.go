package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hotel-booking/auth"
	"hotel-booking/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResolver struct {
	users map[models.Role]map[uint]*auth.Principal
}

func (s stubResolver) ResolvePrincipal(_ context.Context, id uint, role models.Role) (*auth.Principal, error) {
	if p, ok := s.users[role][id]; ok {
		return p, nil
	}
	return nil, errors.New("not found")
}

func newSessions(t *testing.T) (*Sessions, *auth.SessionManager) {
	t.Helper()
	m, err := auth.NewSessionManager(auth.SessionConfig{Secret: strings.Repeat("k", 32), TTL: time.Hour})
	require.NoError(t, err)
	storeID := uint(3)
	resolver := stubResolver{users: map[models.Role]map[uint]*auth.Principal{
		models.RoleAdmin:    {1: {ID: 1, Role: models.RoleAdmin}},
		models.RoleStaff:    {2: {ID: 2, Role: models.RoleStaff, StoreID: &storeID}},
		models.RoleCustomer: {5: {ID: 5, Role: models.RoleCustomer}},
	}}
	return NewSessions(m, resolver), m
}

func whoAmI(c *gin.Context) {
	p := CurrentPrincipal(c)
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"role": ""})
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": p.Role})
}

func TestRequire(t *testing.T) {
	sessions, m := newSessions(t)
	r := gin.New()
	r.GET("/admin", sessions.Require(auth.ScopeAdmin, models.RoleAdmin), whoAmI)
	r.GET("/desk", sessions.Require(auth.ScopeAdmin), whoAmI)
	r.GET("/me", sessions.Require(auth.ScopeClient), whoAmI)

	token := func(id uint, role models.Role) string {
		tok, err := m.Issue(id, role)
		require.NoError(t, err)
		return tok
	}

	cases := []struct {
		name   string
		path   string
		cookie *http.Cookie
		status int
	}{
		{"no session", "/admin", nil, http.StatusUnauthorized},
		{"garbage", "/admin", &http.Cookie{Name: auth.AdminCookieName, Value: "abc"}, http.StatusUnauthorized},
		{"admin ok", "/admin", m.NewCookie(auth.ScopeAdmin, token(1, models.RoleAdmin)), http.StatusOK},
		{"staff forbidden on admin route", "/admin", m.NewCookie(auth.ScopeAdmin, token(2, models.RoleStaff)), http.StatusForbidden},
		{"staff ok on desk", "/desk", m.NewCookie(auth.ScopeAdmin, token(2, models.RoleStaff)), http.StatusOK},
		{"customer token in admin cookie", "/desk", m.NewCookie(auth.ScopeAdmin, token(5, models.RoleCustomer)), http.StatusUnauthorized},
		{"customer ok", "/me", m.NewCookie(auth.ScopeClient, token(5, models.RoleCustomer)), http.StatusOK},
		{"unknown user", "/me", m.NewCookie(auth.ScopeClient, token(99, models.RoleCustomer)), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.cookie != nil {
				req.AddCookie(tc.cookie)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.status >= 400 {
				assert.Contains(t, w.Body.String(), `"code":"error.`)
			}
		})
	}
}

func TestRequire_BearerHeader(t *testing.T) {
	sessions, m := newSessions(t)
	r := gin.New()
	r.GET("/desk", sessions.Require(auth.ScopeAdmin), whoAmI)

	tok, err := m.Issue(1, models.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/desk", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOptional(t *testing.T) {
	sessions, m := newSessions(t)
	r := gin.New()
	r.GET("/stores", sessions.Optional(auth.ScopeAdmin), whoAmI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stores", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":""}`, w.Body.String())

	tok, err := m.Issue(2, models.RoleStaff)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/stores", nil)
	req.AddCookie(m.NewCookie(auth.ScopeAdmin, tok))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"role":"STAFF"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := gin.New()
	r.POST("/login", RateLimit(rdb, RateLimitConfig{Limit: 2, Window: time.Minute}, nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimit_NoRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, RateLimitConfig{Limit: 1}, nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestMetrics(t *testing.T) {
	m := NewMetrics("hotel")
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	m.ObserveTransition("check_in")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	assert.Contains(t, body, `hotel_http_requests_total{method="GET",route="/ping",status="200"} 1`)
	assert.Contains(t, body, `hotel_booking_transitions_total{event="check_in"} 1`)
}
