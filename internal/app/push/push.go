// Package push delivers notifications to the device tokens of a
// union's members through a multicast gateway.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notification is the payload handed to the gateway. Data rides along
// so the app can deep-link into the right union and screen.
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Sender multicasts one notification to a batch of device tokens.
type Sender interface {
	Multicast(ctx context.Context, tokens []string, n Notification) error
}

// HTTPSender posts multicast requests to an FCM-legacy style gateway.
// Built on net/http directly; the gateway speaks one JSON POST shape
// and none of the vendor SDKs in use elsewhere cover it.
type HTTPSender struct {
	URL       string
	ServerKey string
	Client    *http.Client
}

func NewHTTPSender(url, serverKey string) *HTTPSender {
	return &HTTPSender{
		URL:       url,
		ServerKey: serverKey,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type multicastRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    Notification      `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

func (s *HTTPSender) Multicast(ctx context.Context, tokens []string, n Notification) error {
	body, err := json.Marshal(multicastRequest{
		RegistrationIDs: tokens,
		Notification:    n,
		Data:            n.Data,
	})
	if err != nil {
		return fmt.Errorf("push: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.ServerKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("push: gateway request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push: gateway returned %s", resp.Status)
	}
	return nil
}
