package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"code.sajari.com/docconv"
)

// convertPath is swappable in tests; docconv shells out to external tools
var convertPath = func(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

// MarkdownConverter turns source documents (PDF, DOCX, HTML, plain text) into
// markdown files stored under a dedicated directory.
type MarkdownConverter struct {
	outputDir string
}

func NewMarkdownConverter(outputDir string) *MarkdownConverter {
	return &MarkdownConverter{outputDir: outputDir}
}

// Convert extracts the text of the file at path and writes it next to the
// other markdown artifacts as <stem>.md. Extraction tries docconv first and
// falls back to reading the file as plain text exactly once; if both fail the
// returned error carries both causes. Returns the markdown text and the path
// it was saved to.
func (c *MarkdownConverter) Convert(path string) (string, string, error) {
	text, primaryErr := convertPath(path)
	if primaryErr != nil || strings.TrimSpace(text) == "" {
		if primaryErr == nil {
			primaryErr = fmt.Errorf("conversion produced empty text")
		}
		var fallbackErr error
		text, fallbackErr = readPlainText(path)
		if fallbackErr != nil {
			return "", "", fmt.Errorf("failed to convert %s: %v; plain-text fallback: %w", filepath.Base(path), primaryErr, fallbackErr)
		}
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create markdown directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(c.outputDir, stem+".md")
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write markdown file: %w", err)
	}

	return text, outPath, nil
}

// readPlainText reads the file raw and accepts it only if it looks like text
func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text")
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("file is empty")
	}
	return text, nil
}
