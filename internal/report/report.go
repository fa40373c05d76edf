// Package report saves finished result bundles to disk and reads them back.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/fakeyudi/hats/internal/session"
)

// Format names an on-disk report encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q (want markdown, json or yaml)", ErrUnknownFormat, s)
}

// Ext returns the file extension used for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".md"
	}
}

// Renderer serializes a ResultBundle to bytes.
type Renderer interface {
	Render(b *session.ResultBundle) ([]byte, error)
}

// Parser deserializes a saved report back into a ResultBundle.
type Parser interface {
	Parse(data []byte) (*session.ResultBundle, error)
}

// RendererFor returns the renderer for f.
func RendererFor(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &JSONRenderer{}
	case FormatYAML:
		return &YAMLRenderer{}
	default:
		return &MarkdownRenderer{}
	}
}

// ParserFor picks a parser from the extension of path. Anything that is not
// JSON or YAML is treated as Markdown.
func ParserFor(path string) Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return &JSONParser{}
	case ".yaml", ".yml":
		return &YAMLParser{}
	default:
		return &MarkdownParser{}
	}
}

// FileName returns the report file name for b: the first eight characters of
// the session id plus the creation time. Characters other than ASCII letters,
// digits, '-' and '_' in the id become '-'.
func FileName(b *session.ResultBundle, f Format) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, b.SessionID)
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		id = "local"
	}
	stamp := "undated"
	if !b.CreatedAt.IsZero() {
		stamp = b.CreatedAt.UTC().Format("20060102-150405")
	}
	return fmt.Sprintf("hats-%s-%s%s", id, stamp, f.Ext())
}

// Write renders b in format f into dir and returns the file path. The file is
// written to a pending file in the same directory, synced and renamed into
// place.
func Write(dir string, f Format, b *session.ResultBundle) (string, error) {
	if b == nil {
		return "", errors.New("no results to save")
	}
	data, err := RendererFor(f).Render(b)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(b, f))
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	defer pending.Cleanup()

	if _, err := pending.Write(data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// Read loads a saved report. Perspective keys outside the six hats are
// dropped.
func Read(path string) (*session.ResultBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	b, err := ParserFor(path).Parse(data)
	if err != nil {
		return nil, err
	}
	b.Normalize()
	return b, nil
}
