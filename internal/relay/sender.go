package relay

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Sender delivers outbound SMS through the provider's REST API using
// basic auth with the account's public/private key pair.
type Sender struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
	privateKey string
	from       string
}

// NewSender creates an outbound SMS sender
func NewSender(baseURL, publicKey, privateKey, from string) *Sender {
	return &Sender{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		publicKey:  publicKey,
		privateKey: privateKey,
		from:       from,
	}
}

// Send posts one message to the provider
func (s *Sender) Send(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("action", "SEND")
	form.Set("from", s.from)
	form.Set("number", to)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/messages", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create send request: %w", err)
	}
	req.SetBasicAuth(s.publicKey, s.privateKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(payload))
	}

	log.Debug().Str("to", to).Msg("Outbound SMS delivered to provider")
	return nil
}
