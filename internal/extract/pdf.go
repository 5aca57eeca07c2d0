package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"manualpilot/internal/pkg/pdfextract"
)

type PDFExtractor struct {
	client *http.Client
}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{client: newHTTPClient()}
}

func (e *PDFExtractor) Extract(ctx context.Context, rawURL string) (string, string, error) {
	data, err := fetch(ctx, e.client, rawURL, "application/pdf,*/*")
	if err != nil {
		return "", "", fmt.Errorf("fetch pdf failed: %w", err)
	}
	text, err := pdfextract.ExtractText(data)
	if err != nil {
		return "", "", fmt.Errorf("extract pdf text failed: %w", err)
	}
	return pdfTitleFromURL(rawURL), text, nil
}

// pdfTitleFromURL derives a display title from the last URL path segment; PDFs
// carry no usable title metadata through plain-text extraction.
func pdfTitleFromURL(rawURL string) string {
	name := "Unknown"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "" && base != "." && base != "/" {
			name = base
		}
	}
	return "PDF: " + name
}
