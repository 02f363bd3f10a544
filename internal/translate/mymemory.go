package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMyMemoryEndpoint is the public MyMemory translation API.
const DefaultMyMemoryEndpoint = "https://api.mymemory.translated.net/get"

// MyMemory translates through the MyMemory HTTP API.
type MyMemory struct {
	endpoint string
	email    string
	client   *http.Client
}

// MyMemoryOption configures a MyMemory client.
type MyMemoryOption func(*MyMemory)

// WithEndpoint overrides the API URL.
func WithEndpoint(endpoint string) MyMemoryOption {
	return func(m *MyMemory) { m.endpoint = endpoint }
}

// WithEmail sends the "de" parameter, which raises the anonymous daily quota.
func WithEmail(email string) MyMemoryOption {
	return func(m *MyMemory) { m.email = email }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) MyMemoryOption {
	return func(m *MyMemory) { m.client = c }
}

// NewMyMemory returns a MyMemory client with a 10 second timeout.
func NewMyMemory(opts ...MyMemoryOption) *MyMemory {
	m := &MyMemory{
		endpoint: DefaultMyMemoryEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type myMemoryResponse struct {
	ResponseData *struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus json.RawMessage `json:"responseStatus"`
}

// Translate issues GET <endpoint>?q=<text>&langpair=<src>|<dst> and returns
// responseData.translatedText.
func (m *MyMemory) Translate(ctx context.Context, text string, pair LangPair) (string, error) {
	q := url.Values{}
	q.Set("q", text)
	q.Set("langpair", pair.String())
	if m.email != "" {
		q.Set("de", m.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("translation API error: status %d", res.StatusCode)
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	// responseStatus is a number or a numeric string; quota errors arrive
	// with HTTP 200 and the error message as translatedText.
	if status := strings.Trim(string(parsed.ResponseStatus), `" `); status != "" && status != "200" {
		return "", fmt.Errorf("translation API error: response status %s", status)
	}
	if parsed.ResponseData == nil {
		return "", fmt.Errorf("response has no responseData: %w", ErrEmptyTranslation)
	}
	out := strings.TrimSpace(parsed.ResponseData.TranslatedText)
	if out == "" {
		return "", ErrEmptyTranslation
	}
	return out, nil
}
