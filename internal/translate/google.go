package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ppiankov/labsense/internal/collab"
)

// DefaultGoogleURL is the public gtx endpoint
const DefaultGoogleURL = "https://translate.googleapis.com/translate_a/single"

// GoogleBackend calls the Google Translate gtx endpoint
type GoogleBackend struct {
	baseURL string
	client  *http.Client
}

// NewGoogleBackend creates a backend. An empty baseURL uses the public endpoint.
func NewGoogleBackend(baseURL string, client *http.Client) *GoogleBackend {
	if baseURL == "" {
		baseURL = DefaultGoogleURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleBackend{baseURL: baseURL, client: client}
}

// Name implements Backend
func (g *GoogleBackend) Name() string { return "google" }

// Translate implements Backend
func (g *GoogleBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceParam(source))
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", collab.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("google translate error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", collab.Permanent(err)
		}
		return "", err
	}

	return parseGTX(body)
}

// parseGTX concatenates data[0][i][0] of the gtx response
func parseGTX(body []byte) (string, error) {
	var data []json.RawMessage
	if err := json.Unmarshal(body, &data); err != nil {
		return "", collab.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	if len(data) == 0 {
		return "", collab.Permanent(fmt.Errorf("empty response"))
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(data[0], &segments); err != nil {
		return "", collab.Permanent(fmt.Errorf("unexpected response shape: %w", err))
	}

	var b strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var part string
		if err := json.Unmarshal(seg[0], &part); err != nil {
			continue // null or non-string segment
		}
		b.WriteString(part)
	}
	return b.String(), nil
}

func sourceParam(source string) string {
	if source == "" {
		return "auto"
	}
	return source
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
