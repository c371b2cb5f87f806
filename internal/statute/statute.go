// Package statute loads the full text of the penal code from disk.
package statute

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSourceUnavailable is returned when the statute file is missing or unreadable.
// Callers degrade to vector-only retrieval.
var ErrSourceUnavailable = errors.New("statute source unavailable")

// Format is the on-disk format of a statute source.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Document is a loaded statute.
type Document struct {
	Path   string
	Format Format
	// Text is the plain statute text: one heading or paragraph per line block,
	// with LF line endings.
	Text string
}

// Load reads the statute at path. Markdown files (.md, .markdown) are flattened to plain
// text; anything else is read as text.
func Load(path string) (Document, error) {
	if path == "" {
		return Document{}, fmt.Errorf("%w: no path configured", ErrSourceUnavailable)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s does not exist", ErrSourceUnavailable, path)
		}
		return Document{}, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	doc := Document{Path: path, Format: FormatText}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc.Format = FormatMarkdown
		doc.Text = FlattenMarkdown(raw)
	default:
		doc.Text = normalizeNewlines(string(raw))
	}
	if strings.TrimSpace(doc.Text) == "" {
		return Document{}, fmt.Errorf("%w: %s is empty", ErrSourceUnavailable, path)
	}
	return doc, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
