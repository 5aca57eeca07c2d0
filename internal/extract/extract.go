// Package extract turns a source URL into a display title and raw text, ready
// for chunking. The source kind is decided once from the URL and dispatched
// through the Extractor interface; new kinds are added as new implementations.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"manualpilot/internal/model"
)

const (
	fetchTimeout = 30 * time.Second
	maxRedirects = 5

	// Some manual hosts reject non-browser clients outright.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Extractor produces a display title and raw text for a source URL.
type Extractor interface {
	Extract(ctx context.Context, url string) (title, text string, err error)
}

// KindForURL classifies a URL by suffix: ".pdf" (case-insensitive) is a PDF
// source, everything else is treated as a web page.
func KindForURL(rawURL string) model.SourceKind {
	if strings.HasSuffix(strings.ToLower(rawURL), ".pdf") {
		return model.SourceKindPDF
	}
	return model.SourceKindWeb
}

// ForKind returns the adapter for a source kind.
func ForKind(kind model.SourceKind) Extractor {
	if kind == model.SourceKindPDF {
		return NewPDFExtractor()
	}
	return NewWebExtractor()
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}

func fetch(ctx context.Context, client *http.Client, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fetch response failed: %w", err)
	}
	return raw, nil
}
