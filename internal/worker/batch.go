package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/labsense/internal/model"
)

// Processor turns one report document into an interpreted report
type Processor interface {
	Process(ctx context.Context, path string) (*model.Report, error)
}

// ReportJob represents one document to interpret
type ReportJob struct {
	Index     int
	Path      string
	Processor Processor
}

// Execute executes the report job
func (j *ReportJob) Execute(ctx context.Context) Result {
	report, err := j.Processor.Process(ctx, j.Path)
	return &ReportResult{
		Index:  j.Index,
		Path:   j.Path,
		Report: report,
		Error:  err,
	}
}

// ReportResult represents the result of a report job
type ReportResult struct {
	Index  int
	Path   string
	Report *model.Report
	Error  error
}

// GetError returns the error from the report result
func (r *ReportResult) GetError() error {
	return r.Error
}

// BatchProcessor interprets many documents concurrently. Documents are
// independent, so the only shared state lives in the collaborators.
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessPaths processes documents concurrently and returns results in input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*ReportResult {
	if len(paths) == 0 {
		return []*ReportResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, path := range paths {
			pool.Submit(&ReportJob{
				Index:     i,
				Path:      path,
				Processor: b.processor,
			})
		}
		pool.Close()
	}()

	results := make([]*ReportResult, 0, len(paths))
	for result := range pool.Results() {
		results = append(results, result.(*ReportResult))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return results
}

// ProcessFile reads document paths from a list file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*ReportResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths or links from a file (one per line).
// Relative paths resolve against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) && !strings.Contains(line, "://") {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
