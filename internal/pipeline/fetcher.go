package pipeline

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/ppiankov/labsense/internal/collab"
)

// DefaultMaxBodyBytes bounds a downloaded report
const DefaultMaxBodyBytes = 20 << 20

// Fetcher downloads report documents from lab portal links
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	guard      *collab.Guard
}

// NewFetcher creates a new Fetcher. A nil guard makes a single attempt.
func NewFetcher(client *http.Client, userAgent string, maxBytes int64, guard *collab.Guard) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{httpClient: client, userAgent: userAgent, maxBytes: maxBytes, guard: guard}
}

// FetchResult is a downloaded document
type FetchResult struct {
	Body        []byte
	ContentType string
	Name        string // file name used to pick a line source
	FinalURL    string
}

// FetchWithRetry fetches through the guard, retrying transient failures
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.guard == nil {
		return f.Fetch(ctx, rawURL)
	}

	var result *FetchResult
	err := f.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = f.Fetch(ctx, rawURL)
		return err
	})
	return result, err
}

// Fetch downloads one document. Client errors other than 429 are permanent.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, collab.Permanent(fmt.Errorf("create request: %w", err))
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "application/pdf,text/html;q=0.9,text/plain;q=0.8,*/*;q=0.5")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
		if !isRetryableStatus(resp.StatusCode) {
			return nil, collab.Permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, collab.Permanent(fmt.Errorf("read body: %w", err))
	}

	finalURL := resp.Request.URL.String()
	contentType := resp.Header.Get("Content-Type")

	return &FetchResult{
		Body:        body,
		ContentType: contentType,
		Name:        documentName(finalURL, contentType),
		FinalURL:    finalURL,
	}, nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// isURL reports whether a report argument is a link rather than a path
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// documentName returns the last path segment, with an extension derived from
// the content type when the URL has none
func documentName(rawURL, contentType string) string {
	name := "report"
	if parsed, err := url.Parse(rawURL); err == nil {
		if base := path.Base(parsed.Path); base != "/" && base != "." && base != "" {
			name = base
		}
	}
	if path.Ext(name) != "" {
		return name
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return name + ".pdf"
	case "text/html", "application/xhtml+xml":
		return name + ".html"
	}
	return name + ".txt"
}
