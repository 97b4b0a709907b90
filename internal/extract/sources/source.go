package sources

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Source turns a report document into raw text lines
type Source interface {
	// Name returns the source name
	Name() string

	// CanHandle checks if this source can read the given file/content type
	CanHandle(path string, contentType string) bool

	// Lines extracts text lines from the document
	Lines(ctx context.Context, r io.Reader) ([]string, error)
}

// Options configures the built-in sources
type Options struct {
	PDFLicenseKey string
}

// Registry manages document sources
type Registry struct {
	sources  []Source
	fallback Source
}

// NewRegistry creates a registry with the PDF and HTML sources and a
// plain text fallback
func NewRegistry(opts Options) *Registry {
	registry := &Registry{
		sources: make([]Source, 0),
	}

	registry.Register(NewPDFSource(opts.PDFLicenseKey))
	registry.Register(NewHTMLSource())

	registry.fallback = NewTextSource()

	return registry
}

// Register registers a new source
func (r *Registry) Register(source Source) {
	r.sources = append(r.sources, source)
}

// Find returns the first source that can handle the document
func (r *Registry) Find(path string, contentType string) Source {
	for _, source := range r.sources {
		if source.CanHandle(path, contentType) {
			return source
		}
	}
	return r.fallback
}

// ReadFile extracts lines from a file on disk
func (r *Registry) ReadFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	return r.Read(ctx, path, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))), f)
}

// Read extracts lines from an already opened document. name and contentType
// select the source.
func (r *Registry) Read(ctx context.Context, name, contentType string, body io.Reader) ([]string, error) {
	source := r.Find(name, contentType)

	lines, err := source.Lines(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s source: %w", source.Name(), err)
	}

	return lines, nil
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
