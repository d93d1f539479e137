package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aiinspire/models"
	"aiinspire/store/memstore"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testTokens = Tokens{Secret: []byte("test-secret"), TTL: time.Hour}

func newUser(t *testing.T, st *memstore.Store, role models.Role, disabled bool) *models.User {
	t.Helper()
	u := &models.User{Email: string(role) + "@example.com", Username: string(role), Role: role, Disabled: disabled}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func authRouter(st *memstore.Store) *gin.Engine {
	r := gin.New()
	r.Use(Authenticate(testTokens, st))
	r.GET("/public", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString("userId")})
	})
	r.GET("/private", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).Username})
	})
	r.GET("/admin", RequireUser(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokens(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	tok, err := testTokens.Issue(u, time.Now())
	require.NoError(t, err)

	claims, err := testTokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = Tokens{Secret: []byte("other")}.Parse(tok)
	assert.Error(t, err)

	expired, err := testTokens.Issue(u, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = testTokens.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthenticate(t *testing.T) {
	st := memstore.New()
	user := newUser(t, st, models.RoleUser, false)
	admin := newUser(t, st, models.RoleAdmin, false)
	banned := &models.User{Email: "b@example.com", Username: "banned", Role: models.RoleUser, Disabled: true}
	require.NoError(t, st.CreateUser(context.Background(), banned))

	r := authRouter(st)
	userTok, _ := testTokens.Issue(user, time.Now())
	adminTok, _ := testTokens.Issue(admin, time.Now())
	bannedTok, _ := testTokens.Issue(banned, time.Now())

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"anonymous public", "/public", "", http.StatusOK},
		{"bad token public", "/public", "garbage", http.StatusOK},
		{"anonymous private", "/private", "", http.StatusUnauthorized},
		{"bad token private", "/private", "garbage", http.StatusUnauthorized},
		{"user private", "/private", userTok, http.StatusOK},
		{"disabled user", "/private", bannedTok, http.StatusForbidden},
		{"user admin", "/admin", userTok, http.StatusForbidden},
		{"admin admin", "/admin", adminTok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.path, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := do(r, "/private?token="+userTok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), user.Username)
}

func TestSocketAuthenticator(t *testing.T) {
	st := memstore.New()
	active := newUser(t, st, models.RoleUser, false)
	disabled := newUser(t, st, models.RoleAdmin, true)
	auth := SocketAuthenticator(testTokens, st)

	tok, err := testTokens.Issue(active, time.Now())
	require.NoError(t, err)
	id, err := auth(tok)
	require.NoError(t, err)
	assert.Equal(t, active.ID.Hex(), id)

	tok, err = testTokens.Issue(disabled, time.Now())
	require.NoError(t, err)
	_, err = auth(tok)
	assert.ErrorIs(t, err, ErrUserDisabled)

	tok, err = testTokens.Issue(&models.User{ID: primitive.NewObjectID()}, time.Now())
	require.NoError(t, err)
	_, err = auth(tok)
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = auth("garbage")
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, rl.Sweep())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	r := gin.New()
	r.Use(Logger(zap.NewNop()), rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, "/", "").Code)
	w := do(r, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/", func(c *gin.Context) { panic("boom") })
	assert.Equal(t, http.StatusInternalServerError, do(r, "/", "").Code)
}
