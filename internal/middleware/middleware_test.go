package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cineplex-booking/internal/config"
)

const secret = "test-secret"

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	e.GET("/p", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get("user_id").(string))
	}, JWTAuth(secret), RequireRole(roles...))
	return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	uid := uuid.New()
	tok, err := IssueToken(secret, uid, RoleCustomer, time.Minute)
	require.NoError(t, err)

	rec := call(protected(RoleCustomer), tok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid.String(), rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
	uid := uuid.New()
	wrongKey, _ := IssueToken("other", uid, RoleCustomer, time.Minute)
	expired, _ := IssueToken(secret, uid, RoleCustomer, -time.Minute)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{Subject: uid.String()},
	}).SignedString([]byte(secret))
	badSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte(secret))

	for name, tok := range map[string]string{
		"missing":     "",
		"wrong key":   wrongKey,
		"expired":     expired,
		"no expiry":   noExp,
		"bad subject": badSubject,
		"garbage":     "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, call(protected(RoleCustomer), tok).Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	staff, err := IssueToken(secret, uuid.New(), RoleStaff, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, call(protected(RoleCustomer), staff).Code)
	assert.Equal(t, http.StatusOK, call(protected(RoleStaff, RoleCustomer), staff).Code)
}

func TestTokenBucketPassThrough(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	serve := func(mw echo.MiddlewareFunc) int {
		e := echo.New()
		e.GET("/x", ok, mw)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil, zap.NewNop())))
	assert.Equal(t, http.StatusNoContent, serve(NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop())))

	// an unreachable limiter fails open
	rdb, _ := redismock.NewClientMock()
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute, Prefix: "rl"}
	assert.Equal(t, http.StatusNoContent, serve(NewTokenBucket(cfg, rdb, zap.NewNop())))
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/showtimes/1", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/showtimes/:id")
	c.Set("user_id", "u1")

	assert.Equal(t, "rl:ip:10.0.0.7", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	assert.Equal(t, "rl:user:u1:route:GET /v1/showtimes/:id", buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}, c))
	assert.Equal(t, "rl:ip:10.0.0.7:user:u1:route:GET /v1/showtimes/:id", buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c))
}
