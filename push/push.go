// Package push delivers web push notifications to stored browser subscriptions.
package push

import (
	"context"
	"encoding/json"
	"net/http"

	"aiinspire/store"

	"github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Message struct {
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	URL   string                 `json:"url,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Notifier struct {
	subs       store.PushSubscriptions
	publicKey  string
	privateKey string
	subject    string
	log        *zap.Logger
	client     webpush.HTTPClient
}

func NewNotifier(subs store.PushSubscriptions, publicKey, privateKey, subject string, log *zap.Logger) *Notifier {
	return &Notifier{
		subs:       subs,
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		log:        log,
		client:     http.DefaultClient,
	}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.publicKey != "" && n.privateKey != ""
}

func (n *Notifier) PublicKey() string {
	if n == nil {
		return ""
	}
	return n.publicKey
}

// Send pushes msg to every subscription of userID and returns how many were
// delivered. Subscriptions the push service reports gone are deleted.
func (n *Notifier) Send(ctx context.Context, userID primitive.ObjectID, msg Message) int {
	if !n.Enabled() {
		return 0
	}
	subs, err := n.subs.ListPushSubscriptions(ctx, userID)
	if err != nil {
		n.log.Error("list push subscriptions", zap.String("userId", userID.Hex()), zap.Error(err))
		return 0
	}
	if len(subs) == 0 {
		return 0
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("marshal push payload", zap.Error(err))
		return 0
	}

	sent := 0
	for _, s := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: s.Endpoint,
			Keys:     webpush.Keys{P256dh: s.P256dh, Auth: s.Auth},
		}, &webpush.Options{
			HTTPClient:      n.client,
			Subscriber:      n.subject,
			VAPIDPublicKey:  n.publicKey,
			VAPIDPrivateKey: n.privateKey,
			TTL:             60,
		})
		if err != nil {
			n.log.Warn("send push", zap.String("endpoint", s.Endpoint), zap.Error(err))
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			if err := n.subs.DeletePushSubscription(ctx, s.Endpoint); err != nil {
				n.log.Warn("delete stale push subscription", zap.String("endpoint", s.Endpoint), zap.Error(err))
			}
		case resp.StatusCode >= 300:
			n.log.Warn("push rejected", zap.String("endpoint", s.Endpoint), zap.Int("status", resp.StatusCode))
		default:
			sent++
		}
	}
	return sent
}

// GenerateKeys returns a new VAPID key pair.
func GenerateKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}
