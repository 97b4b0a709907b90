package sources

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// TextSource reads plain text, one report line per line
type TextSource struct{}

// NewTextSource creates a new text source
func NewTextSource() *TextSource {
	return &TextSource{}
}

// Name returns the source name
func (s *TextSource) Name() string {
	return "text"
}

// CanHandle accepts .txt files and text/plain content
func (s *TextSource) CanHandle(path string, contentType string) bool {
	return hasExt(path, ".txt") || strings.HasPrefix(contentType, "text/plain")
}

// Lines returns every line with trailing carriage returns removed
func (s *TextSource) Lines(ctx context.Context, r io.Reader) ([]string, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan text: %w", err)
	}

	return lines, nil
}
