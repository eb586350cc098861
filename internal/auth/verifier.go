package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Verifier checks an identity token against the external identity provider
// and returns the subject uid. It is a pure pass-through: any provider
// failure surfaces as an authentication failure.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// HTTPVerifier posts the token to the provider's lookup endpoint.
type HTTPVerifier struct {
	httpClient *http.Client
	endpoint   string
}

func NewHTTPVerifier(client *http.Client, endpoint string) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPVerifier{httpClient: client, endpoint: endpoint}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (string, error) {
	if v.endpoint == "" {
		return "", fmt.Errorf("identity endpoint is not configured")
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", fmt.Errorf("marshal token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("identity provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var result struct {
		Users []struct {
			LocalID string `json:"localId"`
		} `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode identity response: %w", err)
	}
	if len(result.Users) == 0 || result.Users[0].LocalID == "" {
		return "", fmt.Errorf("token does not resolve to a user")
	}

	return result.Users[0].LocalID, nil
}
