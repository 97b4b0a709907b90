package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/labsense/internal/model"
)

// MockProcessor implements Processor
type MockProcessor struct {
	FailPath string
}

func (m *MockProcessor) Process(ctx context.Context, path string) (*model.Report, error) {
	time.Sleep(5 * time.Millisecond) // Simulate work
	if path == m.FailPath {
		return nil, model.NewNoRecordsError(path, 3)
	}
	return &model.Report{Source: path}, nil
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{}, 2)

	paths := []string{"a.pdf", "b.txt", "c.html", "d.pdf", "e.pdf", "f.pdf", "g.pdf"}
	results := processor.ProcessPaths(context.Background(), paths)

	if len(results) != len(paths) {
		t.Fatalf("expected %d results, got %d", len(paths), len(results))
	}

	for i, res := range results {
		if res.Path != paths[i] {
			t.Errorf("result %d is for %s, want %s (order must follow input)", i, res.Path, paths[i])
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Path, res.Error)
		}
		if res.Report == nil || res.Report.Source != paths[i] {
			t.Errorf("expected report for %s", res.Path)
		}
	}
}

func TestBatchProcessor_ProcessPaths_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{FailPath: "blank.pdf"}, 2)

	results := processor.ProcessPaths(context.Background(), []string{"ok.pdf", "blank.pdf"})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].Error != nil {
		t.Errorf("unexpected error: %v", results[0].Error)
	}
	if !errors.Is(results[1].Error, model.ErrNoRecords) {
		t.Errorf("expected no-records error, got %v", results[1].Error)
	}
	if results[1].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessPaths_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockProcessor{}, 2)

	results := processor.ProcessPaths(context.Background(), []string{})
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadPathsFromFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "reports.txt")
	content := "cbc.pdf\n# comment\n/abs/lipid.pdf\n   \ncbc.pdf\nsub/thyroid.html  \nhttps://lab.example/r/42\n"

	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		t.Fatalf("ReadPathsFromFile failed: %v", err)
	}

	expected := []string{
		filepath.Join(dir, "cbc.pdf"),
		"/abs/lipid.pdf",
		filepath.Join(dir, "sub", "thyroid.html"),
		"https://lab.example/r/42",
	}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %d: %v", len(expected), len(paths), paths)
	}
	for i := range expected {
		if paths[i] != expected[i] {
			t.Errorf("expected %s at index %d, got %s", expected[i], i, paths[i])
		}
	}
}

func TestReadPathsFromFile_NonExistent(t *testing.T) {
	if _, err := ReadPathsFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(listPath, []byte("a.pdf\nb.pdf\n# c.pdf\n"), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := NewBatchProcessor(&MockProcessor{}, 2).ProcessFile(context.Background(), listPath)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	_, err := NewBatchProcessor(&MockProcessor{}, 2).ProcessFile(context.Background(), "no_such_file.txt")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestReportResult_GetError(t *testing.T) {
	r1 := &ReportResult{Path: "a.pdf"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("process failed")
	r2 := &ReportResult{Path: "a.pdf", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}
