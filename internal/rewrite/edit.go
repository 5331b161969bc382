// Package rewrite computes and applies text edits to a task file. Commands
// built on the parsed model only describe what text should change; ApplyFile
// is the single place that writes.
package rewrite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrLineOutOfRange is returned for edits that point past the document.
var ErrLineOutOfRange = errors.New("edit line out of range")

// ErrOverlap is returned when two edits on the same line overlap.
var ErrOverlap = errors.New("overlapping edits")

// Edit replaces the byte range [Start, End) of one line with NewText.
// Start == End inserts; an empty NewText deletes.
type Edit struct {
	Line    int
	Start   int
	End     int
	NewText string
}

// ApplyLines applies edits to lines and returns the replacement text of every
// changed line, keyed by line index. lines itself is not modified.
func ApplyLines(lines []string, edits []Edit) (map[int]string, error) {
	byLine := make(map[int][]Edit)
	for _, e := range edits {
		if e.Line < 0 || e.Line >= len(lines) {
			return nil, fmt.Errorf("line %d: %w", e.Line, ErrLineOutOfRange)
		}
		byLine[e.Line] = append(byLine[e.Line], e)
	}

	changed := make(map[int]string, len(byLine))
	for line, lineEdits := range byLine {
		text, err := applyToLine(lines[line], lineEdits)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if text != lines[line] {
			changed[line] = text
		}
	}
	return changed, nil
}

func applyToLine(text string, edits []Edit) (string, error) {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].Start > edits[j].Start })
	n := len(text)
	for _, e := range edits {
		if e.Start < 0 || e.Start > e.End || e.End > n {
			return "", fmt.Errorf("range [%d,%d) outside line of length %d: %w", e.Start, e.End, n, ErrLineOutOfRange)
		}
	}
	limit := n
	for _, e := range edits {
		if e.End > limit {
			return "", ErrOverlap
		}
		text = text[:e.Start] + e.NewText + text[e.End:]
		limit = e.Start
	}
	return text, nil
}

// Apply returns a copy of lines with edits applied.
func Apply(lines []string, edits []Edit) ([]string, error) {
	changed, err := ApplyLines(lines, edits)
	if err != nil {
		return nil, err
	}
	out := append([]string(nil), lines...)
	for l, text := range changed {
		out[l] = text
	}
	return out, nil
}

// ApplyFile applies edits to the file at path, computed against lines (the
// content the edits were built from), and replaces the file atomically.
// It reports whether anything changed.
func ApplyFile(path string, lines []string, edits []Edit) (bool, error) {
	changed, err := ApplyLines(lines, edits)
	if err != nil {
		return false, err
	}
	if len(changed) == 0 {
		return false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	out, err := Rewrite(bytes.NewReader(content), changed)
	if err != nil {
		return false, fmt.Errorf("failed to rewrite %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := writeFileAtomic(path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return true, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp.%s.%d", filepath.Base(path), os.Getpid()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
