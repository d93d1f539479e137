package handlers_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aiinspire/middleware"
	"aiinspire/models"
	"aiinspire/push"
	"aiinspire/routes"
	"aiinspire/upload"
	"aiinspire/websocket"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (e *testEnv) upload(token, filename string, data []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(e.t, err)
	_, err = fw.Write(data)
	require.NoError(e.t, err)
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func png(n int) []byte {
	b := make([]byte, n)
	copy(b, "\x89PNG\r\n\x1a\n")
	return b
}

func TestUpload(t *testing.T) {
	e := newEnv(t)
	_, user := e.user("alice", models.RoleUser)
	_, admin := e.user("root", models.RoleAdmin)

	w := e.upload(user, "cat.png", png(1024))
	requireStatus(t, w, http.StatusCreated)
	var res upload.Result
	decode(t, w, &res)
	assert.Equal(t, models.MediaImage, res.Kind)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, int64(1024), res.Size)
	assert.Regexp(t, `^/uploads/\d{4}/\d{2}/[0-9a-f-]{36}\.png$`, res.URL)

	served := e.do(http.MethodGet, res.URL, "", nil)
	requireStatus(t, served, http.StatusOK)
	assert.Equal(t, 1024, served.Body.Len())

	requireStatus(t, e.upload(user, "notes.txt", []byte("just some text")), http.StatusUnsupportedMediaType)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	req.Header.Set("Authorization", "Bearer "+user)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	requireStatus(t, w, http.StatusBadRequest)

	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/upload_limits", admin, obj{
		"maxImageMB": 1, "maxVideoMB": 1, "imageTypes": []string{"image/png"},
	}), http.StatusOK)
	requireStatus(t, e.upload(user, "big.png", png(3<<19)), http.StatusRequestEntityTooLarge)
	requireStatus(t, e.upload(user, "huge.png", png(3<<20)), http.StatusRequestEntityTooLarge)
}

func TestSettings(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("root", models.RoleAdmin)
	_, user := e.user("alice", models.RoleUser)

	var public struct {
		Site         models.SiteSettings `json:"site"`
		UploadLimits models.UploadLimits `json:"uploadLimits"`
	}
	decode(t, e.do(http.MethodGet, "/api/settings/public", "", nil), &public)
	assert.Equal(t, models.DefaultSiteSettings(), public.Site)
	assert.Equal(t, models.DefaultUploadLimits(), public.UploadLimits)

	requireStatus(t, e.do(http.MethodGet, "/api/admin/settings/site", user, nil), http.StatusForbidden)
	requireStatus(t, e.do(http.MethodGet, "/api/admin/settings/payment", admin, nil), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/site", admin, obj{"siteName": "<p></p>"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/site", admin, obj{"siteName": "Prompt Lab", "announcement": "hello", "registrationOpen": true}), http.StatusOK)
	decode(t, e.do(http.MethodGet, "/api/settings/public", "", nil), &public)
	assert.Equal(t, "Prompt Lab", public.Site.SiteName)

	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/upload_limits", admin, obj{"maxImageMB": 0, "maxVideoMB": 1}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/upload_limits", admin, obj{"maxImageMB": 1, "maxVideoMB": 1}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/storage", admin, obj{"provider": "cloudinary", "cloudName": "demo"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/storage", admin, obj{"provider": "s3"}), http.StatusBadRequest)

	type storageBody struct {
		Key   string               `json:"key"`
		Value models.StorageConfig `json:"value"`
	}
	cfg := obj{"provider": "cloudinary", "cloudName": "demo", "apiKey": "key", "apiSecret": "s3cret", "folder": "inspire"}
	var out storageBody
	w := e.do(http.MethodPut, "/api/admin/settings/storage", admin, cfg)
	requireStatus(t, w, http.StatusOK)
	decode(t, w, &out)
	assert.Equal(t, models.RedactedSecret, out.Value.APISecret)

	// Writing the redacted form back keeps the stored secret.
	cfg["apiSecret"] = models.RedactedSecret
	cfg["folder"] = "renamed"
	requireStatus(t, e.do(http.MethodPut, "/api/admin/settings/storage", admin, cfg), http.StatusOK)

	var stored models.StorageConfig
	require.NoError(t, e.st.GetSetting(t.Context(), models.SettingStorage, &stored))
	assert.Equal(t, "s3cret", stored.APISecret)
	assert.Equal(t, "renamed", stored.Folder)

	decode(t, e.do(http.MethodGet, "/api/admin/settings/storage", admin, nil), &out)
	assert.Equal(t, models.RedactedSecret, out.Value.APISecret)
	assert.Equal(t, "demo", out.Value.CloudName)
}

func TestPushEndpoints(t *testing.T) {
	e := newEnv(t)
	_, user := e.user("alice", models.RoleUser)
	_, other := e.user("bob", models.RoleUser)

	requireStatus(t, e.do(http.MethodGet, "/api/push/vapid-public-key", "", nil), http.StatusNotFound)

	priv, pub, err := push.GenerateKeys()
	require.NoError(t, err)
	e.h.Push = push.NewNotifier(e.st, pub, priv, "mailto:ops@example.com", zap.NewNop())

	var key struct {
		PublicKey string `json:"publicKey"`
	}
	decode(t, e.do(http.MethodGet, "/api/push/vapid-public-key", "", nil), &key)
	assert.Equal(t, pub, key.PublicKey)

	sub := obj{"endpoint": "https://push.example.com/abc", "keys": obj{"p256dh": "p", "auth": "a"}}
	requireStatus(t, e.do(http.MethodPost, "/api/push/subscribe", user, obj{"endpoint": "not a url"}), http.StatusBadRequest)
	requireStatus(t, e.do(http.MethodPost, "/api/push/subscribe", user, sub), http.StatusOK)

	requireStatus(t, e.do(http.MethodDelete, "/api/push/subscribe", other, obj{"endpoint": "https://push.example.com/abc"}), http.StatusNotFound)
	requireStatus(t, e.do(http.MethodDelete, "/api/push/subscribe", user, obj{"endpoint": "https://push.example.com/abc"}), http.StatusOK)
	requireStatus(t, e.do(http.MethodDelete, "/api/push/subscribe", user, obj{"endpoint": "https://push.example.com/abc"}), http.StatusNotFound)
}

func TestHealthAndRouting(t *testing.T) {
	e := newEnv(t)

	var health struct {
		Status string `json:"status"`
		DB     string `json:"db"`
	}
	decode(t, e.do(http.MethodGet, "/health", "", nil), &health)
	assert.Equal(t, "ok", health.Status)

	e.st.FailNext = errors.New("connection refused")
	w := e.do(http.MethodGet, "/api/health", "", nil)
	requireStatus(t, w, http.StatusServiceUnavailable)
	decode(t, w, &health)
	assert.Equal(t, "degraded", health.Status)

	requireStatus(t, e.do(http.MethodGet, "/api/nothing-here", "", nil), http.StatusNotFound)

	w = e.do(http.MethodGet, "/metrics", "", nil)
	requireStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t)
	_, user := e.user("alice", models.RoleUser)
	router := routes.SetupRouter(e.h, routes.Options{CORSOrigins: testOrigins, Limiter: middleware.NewRateLimiter(0.001, 2)})

	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, get(""))
	assert.Equal(t, http.StatusOK, get(""))
	assert.Equal(t, http.StatusTooManyRequests, get(""))

	// Authenticated callers get their own bucket.
	assert.Equal(t, http.StatusOK, get(user))
}

func TestWebSocketHandshake(t *testing.T) {
	e := newEnv(t)
	active, activeTok := e.user("alice", models.RoleUser)
	banned, bannedTok := e.user("mallory", models.RoleUser)
	_, admin := e.user("root", models.RoleAdmin)
	requireStatus(t, e.do(http.MethodPut, "/api/admin/users/"+banned.ID.Hex(), admin, obj{"disabled": true}), http.StatusOK)

	hub := websocket.NewManager(zap.NewNop())
	defer hub.Close()
	srv := httptest.NewServer(routes.SetupRouter(e.h, routes.Options{Hub: hub}))
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token="

	requireStatus(t, e.do(http.MethodGet, "/api/me", bannedTok, nil), http.StatusForbidden)
	_, resp, err := gorilla.DefaultDialer.Dial(base+bannedTok, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := gorilla.DefaultDialer.Dial(base+activeTok, nil)
	require.NoError(t, err)
	defer conn.Close()
	var ev struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "connected", ev.Type)
	assert.True(t, hub.IsOnline(active.ID.Hex()))
}
