// Package push delivers device push notifications.
package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultFCMEndpoint is the legacy FCM HTTP send endpoint
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// ErrDeliveryFailed is returned when the provider rejects a push
var ErrDeliveryFailed = errors.New("push delivery failed")

// Payload is one device push
type Payload struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// Sender delivers a single push payload
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// NoopSender discards every push. Used when push is disabled.
type NoopSender struct{}

// Send implements Sender
func (NoopSender) Send(context.Context, Payload) error { return nil }

// FCMConfig configures the FCM sender
type FCMConfig struct {
	Endpoint  string
	ServerKey string
	Timeout   time.Duration
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Priority     string            `json:"priority"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id,omitempty"`
		Error     string `json:"error,omitempty"`
	} `json:"results"`
}

// FCMSender posts pushes to Firebase Cloud Messaging
type FCMSender struct {
	client *resty.Client
	logger zerolog.Logger
}

// NewFCMSender creates an FCM sender
func NewFCMSender(cfg FCMConfig, logger zerolog.Logger) *FCMSender {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "key="+cfg.ServerKey)

	return &FCMSender{client: client, logger: logger}
}

// Send implements Sender
func (s *FCMSender) Send(ctx context.Context, p Payload) error {
	if p.Token == "" {
		return nil
	}

	var result fcmResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(fcmMessage{
			To:           p.Token,
			Notification: fcmNotification{Title: p.Title, Body: p.Body, Sound: "default"},
			Data:         p.Data,
			Priority:     "high",
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return fmt.Errorf("error sending push: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: status %d", ErrDeliveryFailed, resp.StatusCode())
	}
	if result.Failure > 0 {
		reason := "unknown"
		if len(result.Results) > 0 && result.Results[0].Error != "" {
			reason = result.Results[0].Error
		}
		return fmt.Errorf("%w: %s", ErrDeliveryFailed, reason)
	}

	s.logger.Debug().Int("success", result.Success).Msg("Push delivered")
	return nil
}
