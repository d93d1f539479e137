package websocket

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAuth(token string) (string, error) {
	if token == "bad" {
		return "", errors.New("invalid")
	}
	return token, nil
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestManager(t *testing.T) {
	m := NewManager(zap.NewNop())
	srv := httptest.NewServer(m.Handler(testAuth))
	defer srv.Close()

	alice := dial(t, srv, "alice")
	assert.Equal(t, "connected", readEvent(t, alice).Type)
	assert.True(t, m.IsOnline("alice"))
	assert.False(t, m.IsOnline("bob"))

	require.NoError(t, alice.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readEvent(t, alice).Type)

	require.NoError(t, alice.WriteJSON(map[string]string{"type": "unknown"}))
	assert.Equal(t, 1, m.SendToUser("alice", "spirit.claimed", map[string]string{"id": "1"}))
	ev := readEvent(t, alice)
	assert.Equal(t, "spirit.claimed", ev.Type)
	assert.Equal(t, map[string]interface{}{"id": "1"}, ev.Payload)

	assert.Equal(t, 0, m.SendToUser("bob", "x", nil))
	assert.Equal(t, 1, m.Connections())

	alice.Close()
	assert.Eventually(t, func() bool { return !m.IsOnline("alice") }, 2*time.Second, 10*time.Millisecond)
}

func TestManager_RejectsBadToken(t *testing.T) {
	m := NewManager(zap.NewNop())
	srv := httptest.NewServer(m.Handler(testAuth))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=bad"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}
