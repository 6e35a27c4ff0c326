// Package diff renders unified diffs of the file edits devstrap previews in
// dry runs.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

// MaxLines caps the rendered output; longer diffs end with a marker.
const MaxLines = 10000

const truncateMessage = "... (diff truncated) ..."

type line struct {
	op   byte // ' ', '-' or '+'
	text string
}

// Unified returns a unified diff from before to after, or "" when they are
// equal. from and to label the two sides in the header.
func Unified(before, after []byte, from, to string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	lines := lineOps(string(before), string(after))

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", from, to)
	written := 2
	for _, h := range hunks(lines) {
		oldStart, oldLen, newStart, newLen := h.span(lines)
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldLen, newStart, newLen)
		written++
		for _, l := range lines[h.from:h.to] {
			if written >= MaxLines {
				b.WriteString(truncateMessage + "\n")
				return b.String()
			}
			b.WriteByte(l.op)
			b.WriteString(l.text)
			b.WriteByte('\n')
			written++
		}
	}
	return b.String()
}

// lineOps runs a line-mode diff and flattens it to one entry per line.
func lineOps(before, after string) []line {
	dmp := diffmatchpatch.New()
	a, b, index := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), index)

	var out []line
	for _, d := range diffs {
		op := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			op = '-'
		case diffmatchpatch.DiffInsert:
			op = '+'
		}
		if d.Text == "" {
			continue
		}
		for _, t := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			out = append(out, line{op: op, text: t})
		}
	}
	return out
}

type hunk struct{ from, to int }

// hunks groups changed lines with Context lines either side, merging groups
// whose context would touch.
func hunks(lines []line) []hunk {
	var out []hunk
	for i, l := range lines {
		if l.op == ' ' {
			continue
		}
		from := max(i-Context, 0)
		to := min(i+Context+1, len(lines))
		if n := len(out); n > 0 && from <= out[n-1].to {
			out[n-1].to = max(out[n-1].to, to)
			continue
		}
		out = append(out, hunk{from: from, to: to})
	}
	return out
}

// span computes the 1-based hunk header ranges. An empty side starts at the
// line before the hunk, as diff(1) prints it.
func (h hunk) span(lines []line) (oldStart, oldLen, newStart, newLen int) {
	for _, l := range lines[:h.from] {
		if l.op != '+' {
			oldStart++
		}
		if l.op != '-' {
			newStart++
		}
	}
	for _, l := range lines[h.from:h.to] {
		if l.op != '+' {
			oldLen++
		}
		if l.op != '-' {
			newLen++
		}
	}
	if oldLen > 0 {
		oldStart++
	}
	if newLen > 0 {
		newStart++
	}
	return oldStart, oldLen, newStart, newLen
}
