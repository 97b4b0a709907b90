package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestRegistry_Find(t *testing.T) {
	registry := NewRegistry(Options{})

	tests := []struct {
		path        string
		contentType string
		want        string
	}{
		{"report.pdf", "", "pdf"},
		{"REPORT.PDF", "", "pdf"},
		{"report.html", "", "html"},
		{"export", "text/html; charset=utf-8", "html"},
		{"report.txt", "", "text"},
		{"report", "", "text"},
	}

	for _, tt := range tests {
		if got := registry.Find(tt.path, tt.contentType).Name(); got != tt.want {
			t.Errorf("Find(%q, %q) = %s, want %s", tt.path, tt.contentType, got, tt.want)
		}
	}
}

func TestTextSource_Lines(t *testing.T) {
	lines, err := NewTextSource().Lines(context.Background(), strings.NewReader("Hemoglobin 9.2 g/dL\r\n\r\nMCV 78.5\n"))
	if err != nil {
		t.Fatalf("Lines failed: %v", err)
	}

	want := []string{"Hemoglobin 9.2 g/dL", "", "MCV 78.5"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestHTMLSource_Lines(t *testing.T) {
	doc := `
	<html>
	<head><title>ignored</title><style>td { color: red }</style></head>
	<body>
		<h2>Complete Blood Count</h2>
		<table>
			<tr><th>Test</th><th>Result</th><th>Unit</th><th>Reference Range</th></tr>
			<tr><td>Hemoglobin</td><td><b>9.2</b></td><td>g/dL</td><td>13.0 - 17.0</td></tr>
			<tr><td>MCV</td><td>85</td><td>fL</td><td>80 - 100</td></tr>
		</table>
		<p>Fasting Blood Sugar 126 mg/dL &lt; 100</p>
		<script>var x = 1;</script>
	</body>
	</html>`

	lines, err := NewHTMLSource().Lines(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Lines failed: %v", err)
	}

	want := []string{
		"Complete Blood Count",
		"Test  Result  Unit  Reference Range",
		"Hemoglobin  9.2  g/dL  13.0 - 17.0",
		"MCV  85  fL  80 - 100",
		"Fasting Blood Sugar 126 mg/dL < 100",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestRegistry_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(path, []byte("Hemoglobin 9.2 g/dL 13.0 - 17.0\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	lines, err := NewRegistry(Options{}).ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("expected 1 line, got %d", len(lines))
	}

	if _, err := NewRegistry(Options{}).ReadFile(context.Background(), filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPDFSource_LicenceErrorSharedAcrossSources(t *testing.T) {
	origSet := setLicense
	licenseOnce, licenseErr = sync.Once{}, nil
	t.Cleanup(func() {
		setLicense = origSet
		licenseOnce, licenseErr = sync.Once{}, nil
	})

	calls := 0
	setLicense = func(string) error {
		calls++
		return errors.New("key rejected")
	}

	first := NewPDFSource("bad-key")
	second := NewPDFSource("bad-key")
	if calls != 1 {
		t.Fatalf("licence applied %d times, want 1", calls)
	}

	for i, s := range []*PDFSource{first, second} {
		_, err := s.Lines(context.Background(), strings.NewReader("%PDF-1.4"))
		if err == nil || !strings.Contains(err.Error(), "key rejected") {
			t.Errorf("source %d: err = %v, want licence error", i, err)
		}
	}

	unlicensed := NewPDFSource("")
	if err := unlicensed.licenseError(); err != nil {
		t.Errorf("unlicensed source err = %v, want nil", err)
	}
}
