// Package extract turns uploaded files into plain text for ingestion. PDF
// text extraction uses github.com/ledongthuc/pdf; text formats pass through.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported reports a file type without an extractor.
var ErrUnsupported = errors.New("extract: unsupported file type")

var textExtensions = map[string]bool{".txt": true, ".text": true, ".md": true, ".markdown": true}

// Supported reports whether name has an extractor.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".pdf" || textExtensions[ext]
}

// Text extracts the text of a file named name from its content.
func Text(name string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		return PDF(data)
	case textExtensions[ext]:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("extract: %s is not valid UTF-8", name)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, name)
}

// PDF returns the plain text of every page of a PDF document.
func PDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("extract: malformed pdf: %v", r)
		}
	}()
	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("extract: open pdf: %w", err)
	}
	plain, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("extract: read pdf text: %w", err)
	}
	return buf.String(), nil
}

// File reads and extracts path.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Text(filepath.Base(path), data)
}

// Dir extracts every supported file directly under root, in name order, and
// hands its base name and text to fn. Extraction failures are passed to fn
// through err so a caller can skip a single bad file; an error returned by fn
// stops the walk.
func Dir(ctx context.Context, root string, fn func(name, text string, err error) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		text, extractErr := File(filepath.Join(root, entry.Name()))
		if err := fn(entry.Name(), text, extractErr); err != nil {
			return err
		}
	}
	return nil
}
