package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"aiinspire/models"
	"aiinspire/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func clientKeys(t *testing.T) (string, string) {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()), base64.RawURLEncoding.EncodeToString(auth)
}

func TestSend(t *testing.T) {
	var hits atomic.Int32
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ok.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	ctx := context.Background()
	st := memstore.New()
	user := primitive.NewObjectID()
	for _, endpoint := range []string{ok.URL + "/a", gone.URL + "/b"} {
		p256dh, auth := clientKeys(t)
		require.NoError(t, st.SavePushSubscription(ctx, &models.PushSubscription{
			UserID: user, Endpoint: endpoint, P256dh: p256dh, Auth: auth,
		}))
	}

	priv, pub, err := GenerateKeys()
	require.NoError(t, err)
	n := NewNotifier(st, pub, priv, "mailto:ops@example.com", zap.NewNop())
	require.True(t, n.Enabled())

	sent := n.Send(ctx, user, Message{Title: "hi", Body: "there"})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(2), hits.Load())

	subs, err := st.ListPushSubscriptions(ctx, user)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, ok.URL+"/a", subs[0].Endpoint)
}

func TestSend_Disabled(t *testing.T) {
	var n *Notifier
	assert.False(t, n.Enabled())
	assert.Equal(t, 0, n.Send(context.Background(), primitive.NewObjectID(), Message{}))

	n = NewNotifier(memstore.New(), "", "", "", zap.NewNop())
	assert.Equal(t, 0, n.Send(context.Background(), primitive.NewObjectID(), Message{}))
}
