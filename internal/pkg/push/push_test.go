package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFCMSenderSend(t *testing.T) {
	var got fcmMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":1,"failure":0,"results":[{"message_id":"1"}]}`))
	}))
	defer srv.Close()

	sender := NewFCMSender(FCMConfig{Endpoint: srv.URL, ServerKey: "k", Timeout: time.Second}, zerolog.Nop())
	err := sender.Send(context.Background(), Payload{
		Token: "device-1",
		Title: "New Message",
		Body:  "hello",
		Data:  map[string]string{"type": "message", "messageId": "m1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "key=k", auth)
	assert.Equal(t, "device-1", got.To)
	assert.Equal(t, "New Message", got.Notification.Title)
	assert.Equal(t, "m1", got.Data["messageId"])
	assert.Equal(t, "high", got.Priority)
}

func TestFCMSenderFailures(t *testing.T) {
	t.Run("provider rejects token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success":0,"failure":1,"results":[{"error":"NotRegistered"}]}`))
		}))
		defer srv.Close()

		sender := NewFCMSender(FCMConfig{Endpoint: srv.URL}, zerolog.Nop())
		err := sender.Send(context.Background(), Payload{Token: "stale"})
		assert.ErrorIs(t, err, ErrDeliveryFailed)
		assert.Contains(t, err.Error(), "NotRegistered")
	})

	t.Run("http error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		sender := NewFCMSender(FCMConfig{Endpoint: srv.URL}, zerolog.Nop())
		err := sender.Send(context.Background(), Payload{Token: "t"})
		assert.ErrorIs(t, err, ErrDeliveryFailed)
	})
}

func TestSendWithoutTokenIsNoop(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	sender := NewFCMSender(FCMConfig{Endpoint: srv.URL}, zerolog.Nop())
	require.NoError(t, sender.Send(context.Background(), Payload{Title: "x"}))
	assert.False(t, called)
	assert.NoError(t, NoopSender{}.Send(context.Background(), Payload{Token: "t"}))
}
