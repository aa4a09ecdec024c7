// Package pdftext extracts PDF text with the poppler pdftotext tool.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Extractor pipes PDFs through pdftotext.
type Extractor struct {
	run func(ctx context.Context, input []byte) ([]byte, error)
}

// NewExtractor uses bin, or "pdftotext" from PATH when bin is empty.
func NewExtractor(bin string) *Extractor {
	if bin == "" {
		bin = "pdftotext"
	}
	return &Extractor{run: func(ctx context.Context, input []byte) ([]byte, error) {
		cmd := exec.CommandContext(ctx, bin, "-layout", "-enc", "UTF-8", "-", "-")
		cmd.Stdin = bytes.NewReader(input)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return out, nil
	}}
}

// ExtractText returns the document text with pages joined by newlines.
func (e *Extractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	out, err := e.run(ctx, pdf)
	if err != nil {
		return "", err
	}
	text := strings.ReplaceAll(string(out), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	return strings.TrimRight(text, "\n"), nil
}
