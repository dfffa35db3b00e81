// Package notify delivers push notifications to waiter devices through an
// Expo-compatible push gateway. Delivery is best effort: failures are
// logged and never surface to the request that triggered them.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const sendTimeout = 5 * time.Second

// Pusher sends a push notification to one device token.
type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string)
}

// message is the Expo push API request envelope.
type message struct {
	To    string            `json:"to"`
	Sound string            `json:"sound"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// ExpoPusher posts notifications to an Expo push endpoint.
type ExpoPusher struct {
	endpoint string
	client   *http.Client
}

// NewExpoPusher creates a pusher targeting the given endpoint.
func NewExpoPusher(endpoint string) *ExpoPusher {
	return &ExpoPusher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: sendTimeout},
	}
}

// Push sends one notification. Tokens are opaque Expo tokens stored on the
// waiter row; an empty token is a silent no-op.
func (p *ExpoPusher) Push(ctx context.Context, token, title, body string, data map[string]string) {
	if token == "" {
		return
	}
	if err := p.send(ctx, token, title, body, data); err != nil {
		log.Printf("ERROR: push to %s: %v", token, err)
	}
}

func (p *ExpoPusher) send(ctx context.Context, token, title, body string, data map[string]string) error {
	payload, err := json.Marshal(message{
		To:    token,
		Sound: "default",
		Title: title,
		Body:  body,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	return nil
}
