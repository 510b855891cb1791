package gategin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	clockkit "github.com/open-rails/gatekit/clock"
	"github.com/open-rails/gatekit/entitlement"
	"github.com/open-rails/gatekit/guard"
	"github.com/open-rails/gatekit/resolver"
	memorystore "github.com/open-rails/gatekit/storage/memory"
)

var testNow = time.Date(2026, 8, 31, 10, 0, 0, 0, clockkit.IST)

type staticResolver struct {
	d resolver.Decision
}

func (r staticResolver) Resolve(context.Context, string) (resolver.Decision, error) {
	return r.d, nil
}

func newRouter(t *testing.T, rec *entitlement.Record, d resolver.Decision, opts ...Option) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memorystore.NewEntitlementStore()
	if rec != nil {
		_ = store.Write(context.Background(), *rec)
	}
	svc, err := guard.New(guard.Config{
		Store:    store,
		Resolver: staticResolver{d: d},
		Clock:    clockkit.Fixed{T: testNow},
	})
	if err != nil {
		t.Fatalf("guard.New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	r := gin.New()
	r.Use(RequireEntitlement(svc, opts...))
	r.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "secret") })
	r.GET("/payments", func(c *gin.Context) { c.String(http.StatusOK, "pay here") })
	return r
}

func freshRecord(userID string, active, locked bool) *entitlement.Record {
	return &entitlement.Record{
		UserID:        userID,
		IsActive:      active,
		IsLocked:      locked,
		CheckedAtMs:   clockkit.UnixMs(testNow.Add(-time.Hour)),
		NextCheckAtMs: clockkit.UnixMs(testNow.Add(time.Hour)),
	}
}

func asUser(userID string) Option {
	return WithIdentity(func(*gin.Context) string { return userID })
}

func do(r *gin.Engine, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != nil {
		req.Header = header
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActiveUserPassesThrough(t *testing.T) {
	r := newRouter(t, freshRecord("alice", true, false), resolver.Decision{}, asUser("alice"))

	w := do(r, "/dashboard", nil)
	if w.Code != http.StatusOK || w.Body.String() != "secret" {
		t.Fatalf("status %d body %q", w.Code, w.Body.String())
	}
}

func TestAnonymousRedirectsToLoginWithFrom(t *testing.T) {
	r := newRouter(t, nil, resolver.Decision{}, asUser(""))

	w := do(r, "/dashboard", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login?from=%2Fdashboard" {
		t.Fatalf("location %q", loc)
	}
	if w.Body.String() == "secret" {
		t.Fatal("protected content leaked before redirect")
	}
}

func TestLockedUserRedirectsToPayments(t *testing.T) {
	r := newRouter(t, freshRecord("alice", false, true), resolver.Decision{}, asUser("alice"))

	w := do(r, "/dashboard", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("status %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/payments" {
		t.Fatalf("location %q", loc)
	}

	// The payment page itself stays reachable while locked.
	w = do(r, "/payments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("payments status %d", w.Code)
	}
}

func TestCustomRedirectPaths(t *testing.T) {
	r := newRouter(t, freshRecord("alice", false, true), resolver.Decision{},
		asUser("alice"), WithPaymentPath("/upgrade"))

	w := do(r, "/dashboard", nil)
	if loc := w.Header().Get("Location"); loc != "/upgrade" {
		t.Fatalf("location %q", loc)
	}
}

func TestIdentityFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ContextUserKey, "  Alice ")

	if got := IdentityFromContext(ContextUserKey)(c); got != "alice" {
		t.Fatalf("identity %q, want normalized alice", got)
	}
}

func TestIdentityFromJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	secret := []byte("test-secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "Alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	keyfunc := func(*jwt.Token) (any, error) { return secret, nil }
	fn := IdentityFromJWT(keyfunc)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer "+tok)
	if got := fn(c); got != "alice" {
		t.Fatalf("subject %q, want alice", got)
	}

	// Garbage tokens read as anonymous.
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c2.Request.Header.Set("Authorization", "Bearer not.a.token")
	if got := fn(c2); got != "" {
		t.Fatalf("invalid token resolved to %q", got)
	}
}

func TestChainIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("other", "bob")

	fn := ChainIdentity(
		IdentityFromContext(ContextUserKey), // empty
		IdentityFromContext("other"),
	)
	if got := fn(c); got != "bob" {
		t.Fatalf("chained identity %q, want bob", got)
	}
}
