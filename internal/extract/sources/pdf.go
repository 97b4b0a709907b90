package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	pdfmodel "github.com/unidoc/unipdf/v3/model"
)

// The metered key is process-wide, so its outcome is shared by every source.
var (
	licenseOnce sync.Once
	licenseErr  error
	setLicense  = license.SetMeteredKey
)

// PDFSource extracts text lines from PDF lab reports
type PDFSource struct {
	licenseKey string
}

// NewPDFSource creates a PDF source. The metered licence key is applied once
// per process; an empty key leaves the extractor unlicensed.
func NewPDFSource(licenseKey string) *PDFSource {
	if licenseKey != "" {
		licenseOnce.Do(func() {
			licenseErr = setLicense(licenseKey)
		})
	}
	return &PDFSource{licenseKey: licenseKey}
}

func (s *PDFSource) licenseError() error {
	if s.licenseKey == "" {
		return nil
	}
	return licenseErr
}

// Name returns the source name
func (s *PDFSource) Name() string {
	return "pdf"
}

// CanHandle accepts .pdf files and application/pdf content
func (s *PDFSource) CanHandle(path string, contentType string) bool {
	return hasExt(path, ".pdf") || strings.HasPrefix(contentType, "application/pdf")
}

// Lines extracts the text of every page, page by page, split into lines.
// Pages that fail to extract are skipped so one bad page does not lose the
// rest of the report.
func (s *PDFSource) Lines(ctx context.Context, r io.Reader) ([]string, error) {
	if err := s.licenseError(); err != nil {
		return nil, fmt.Errorf("pdf licence: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}

	reader, err := pdfmodel.NewPdfReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("create pdf reader: %w", err)
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, fmt.Errorf("check encryption: %w", err)
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil {
			return nil, fmt.Errorf("decrypt pdf: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("pdf is password-protected")
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	var lines []string
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := reader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			continue
		}

		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, strings.TrimRight(line, "\r "))
		}
	}

	return lines, nil
}
