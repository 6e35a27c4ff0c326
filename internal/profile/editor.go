// Package profile appends sentinel-marked blocks to shell startup files.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
	"github.com/alexisbeaulieu97/devstrap/pkg/diff"
)

const defaultMode = 0o644

// OpenMarker returns the first line of a block.
func OpenMarker(sentinel string) string {
	return "# >>> " + sentinel + " >>>"
}

// CloseMarker returns the last line of a block.
func CloseMarker(sentinel string) string {
	return "# <<< " + sentinel + " <<<"
}

// Render wraps content between the sentinel markers.
func Render(sentinel, content string) string {
	var b strings.Builder
	b.WriteString(OpenMarker(sentinel))
	b.WriteByte('\n')
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(CloseMarker(sentinel))
	b.WriteByte('\n')
	return b.String()
}

// Editor patches profile files through the host.
type Editor struct {
	host system.Host
}

// NewEditor returns an Editor backed by host.
func NewEditor(host system.Host) *Editor {
	return &Editor{host: host}
}

// Present reports whether the sentinel already appears anywhere in path.
// A missing file does not contain it.
func (e *Editor) Present(path, sentinel string) (bool, error) {
	ok, err := e.host.FileContains(path, sentinel)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	return ok, nil
}

// Ensure appends the block to path unless the sentinel is already present.
// Existing bytes are preserved; the file is created when absent.
func (e *Editor) Ensure(path, sentinel, content string) (bool, error) {
	present, err := e.Present(path, sentinel)
	if err != nil || present {
		return false, err
	}

	before, err := e.current(path)
	if err != nil {
		return false, err
	}
	if err := e.host.AppendFile(path, []byte(appendix(before, sentinel, content)), defaultMode); err != nil {
		return false, fmt.Errorf("append block %s to %s: %w", sentinel, path, err)
	}
	return true, nil
}

// Preview returns the unified diff Ensure would produce, or "" when the
// block is already present.
func (e *Editor) Preview(path, sentinel, content string) (string, error) {
	present, err := e.Present(path, sentinel)
	if err != nil || present {
		return "", err
	}

	before, err := e.current(path)
	if err != nil {
		return "", err
	}
	after := append(append([]byte(nil), before...), appendix(before, sentinel, content)...)
	return diff.Unified(before, after, path, path), nil
}

func (e *Editor) current(path string) ([]byte, error) {
	data, err := e.host.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func appendix(before []byte, sentinel, content string) string {
	block := Render(sentinel, content)
	if len(before) > 0 && !bytes.HasSuffix(before, []byte("\n")) {
		return "\n" + block
	}
	return block
}
