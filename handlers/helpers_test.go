package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"aiinspire/handlers"
	"aiinspire/middleware"
	"aiinspire/models"
	"aiinspire/routes"
	"aiinspire/store/memstore"
	"aiinspire/upload"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testOrigins = []string{"http://localhost:3000"}

type event struct {
	UserID  string
	Type    string
	Payload interface{}
}

type fakeHub struct {
	mu     sync.Mutex
	events []event
}

func (f *fakeHub) SendToUser(userID, eventType string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{UserID: userID, Type: eventType, Payload: payload})
	return 1
}

func (f *fakeHub) eventsFor(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e.Type)
		}
	}
	return out
}

type testEnv struct {
	t      *testing.T
	st     *memstore.Store
	h      *handlers.Handler
	router *gin.Engine
	hub    *fakeHub
	now    int64
	mu     sync.Mutex
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	e := &testEnv{t: t, st: memstore.New(), hub: &fakeHub{}, now: time.Now().Unix()}
	dir := t.TempDir()
	e.h = &handlers.Handler{
		Store:   e.st,
		Tokens:  middleware.Tokens{Secret: []byte("test-secret"), TTL: 24 * time.Hour},
		Log:     zap.NewNop(),
		Hub:     e.hub,
		Uploads: &upload.Resolver{Settings: e.st, UploadDir: dir},
		Now: func() time.Time {
			e.mu.Lock()
			defer e.mu.Unlock()
			return time.Unix(e.now, 0)
		},
	}
	e.router = routes.SetupRouter(e.h, routes.Options{CORSOrigins: testOrigins, UploadDir: dir})
	return e
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now += int64(d / time.Second)
}

// user creates an account directly in the store and returns it with a token.
func (e *testEnv) user(name string, role models.Role) (*models.User, string) {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := &models.User{
		Email:        name + "@example.com",
		Username:     name,
		Nickname:     name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    e.now,
	}
	require.NoError(e.t, e.st.CreateUser(context.Background(), u))
	tok, err := e.h.Tokens.Issue(u, time.Now())
	require.NoError(e.t, err)
	return u, tok
}

func (e *testEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

type listBody[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// obj is shorthand for JSON request bodies.
type obj = map[string]interface{}
