package push

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NordCoder/Lessonbell/internal/domain/delivery"
	"github.com/NordCoder/Lessonbell/internal/domain/notification"
	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subscription(t *testing.T, endpoint string) []byte {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	b, err := json.Marshal(map[string]any{
		"endpoint": endpoint,
		"keys": map[string]string{
			"p256dh": base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
			"auth":   base64.RawURLEncoding.EncodeToString(auth),
		},
	})
	require.NoError(t, err)
	return b
}

func newSender(t *testing.T) *WebPush {
	t.Helper()
	priv, pub, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	w, err := NewWebPush(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv, Subscriber: "ops@school.test"}, nil)
	require.NoError(t, err)
	return w
}

func TestWebPush_Delivered(t *testing.T) {
	var urgencyHdr string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		urgencyHdr = r.Header.Get("Urgency")
		w.Header().Set("Location", "https://push.test/m/1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	res, err := newSender(t).SendPush(context.Background(), delivery.PushMessage{
		Subscription: subscription(t, srv.URL+"/sub/1"),
		Title:        "Lesson",
		Body:         "Starts soon",
		Priority:     notification.PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://push.test/m/1", res.MessageID)
	assert.Equal(t, "high", urgencyHdr)
}

func TestWebPush_ExpiredSubscription(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusGone} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
		}))

		_, err := newSender(t).SendPush(context.Background(), delivery.PushMessage{
			Subscription: subscription(t, srv.URL),
			Title:        "x",
		})
		assert.ErrorIs(t, err, delivery.ErrSubscriptionExpired, "status %d", code)
		srv.Close()
	}
}

func TestWebPush_ServerErrorIsPlainFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newSender(t).SendPush(context.Background(), delivery.PushMessage{Subscription: subscription(t, srv.URL), Title: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, delivery.ErrSubscriptionExpired)
}

func TestWebPush_BadSubscription(t *testing.T) {
	_, err := newSender(t).SendPush(context.Background(), delivery.PushMessage{Subscription: []byte(`{"endpoint":""}`)})
	assert.ErrorIs(t, err, delivery.ErrInvalidRecipient)

	_, err = newSender(t).SendPush(context.Background(), delivery.PushMessage{Subscription: []byte(`not json`)})
	assert.ErrorIs(t, err, delivery.ErrInvalidRecipient)
}

func TestUrgency(t *testing.T) {
	assert.Equal(t, webpush.UrgencyHigh, urgency(notification.PriorityHigh))
	assert.Equal(t, webpush.UrgencyNormal, urgency(notification.PriorityNormal))
	assert.Equal(t, webpush.UrgencyLow, urgency(notification.PriorityLow))
}
