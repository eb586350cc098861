package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
)

const defaultEndpoint = "https://api.sendgrid.com/v3/mail/send"

const fromName = "StorySwap"

// Sender delivers one HTML email to one recipient. Delivery is
// fire-and-forget: network failure, auth failure and provider rejection all
// collapse to false.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) bool
}

// SendGrid sends through the SendGrid v3 mail API.
type SendGrid struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	fromEmail  string
}

func NewSendGrid(client *http.Client, apiKey, fromEmail string) *SendGrid {
	if client == nil {
		client = http.DefaultClient
	}
	return &SendGrid{
		httpClient: client,
		endpoint:   defaultEndpoint,
		apiKey:     apiKey,
		fromEmail:  fromEmail,
	}
}

// WithEndpoint overrides the API URL. Used by tests.
func (s *SendGrid) WithEndpoint(endpoint string) *SendGrid {
	s.endpoint = endpoint
	return s
}

func (s *SendGrid) Send(ctx context.Context, to, subject, htmlBody string) bool {
	// Fail fast without touching the network when the transport is not
	// configured.
	if s.apiKey == "" || s.fromEmail == "" {
		log.Println("mail: missing SendGrid API key or FROM_EMAIL")
		return false
	}

	payload := map[string]any{
		"personalizations": []map[string]any{{
			"to":      []map[string]string{{"email": to}},
			"subject": subject,
		}},
		"from": map[string]string{"email": s.fromEmail, "name": fromName},
		"content": []map[string]string{{
			"type":  "text/html",
			"value": htmlBody,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("mail: marshal payload: %v", err)
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("mail: build request: %v", err)
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	log.Printf("mail: sending via SendGrid -> %s", to)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("mail: send: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return true
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	log.Printf("mail: SendGrid error: status %d: %s", resp.StatusCode, detail)
	return false
}
