package rewrite

import (
	"bufio"
	"bytes"
	"io"
	"sort"
)

// lineRewriter streams the original content line by line and substitutes
// replaced lines. Untouched lines are copied as they are.
type lineRewriter struct {
	scanner  *bufio.Scanner
	output   bytes.Buffer
	lineNo   int  // how many lines have been consumed so far
	finished bool // true once we've reached EOF
}

func newLineRewriter(r io.Reader) *lineRewriter {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &lineRewriter{scanner: sc}
}

// copyUntil writes original lines [lineNo..line-1] and positions the scanner at line.
func (rw *lineRewriter) copyUntil(line int) error {
	for !rw.finished && rw.lineNo < line {
		if !rw.scanner.Scan() {
			rw.finished = true
			return rw.scanner.Err()
		}
		rw.output.Write(rw.scanner.Bytes())
		rw.output.WriteByte('\n')
		rw.lineNo++
	}
	return rw.scanner.Err()
}

// replace consumes original line `line` and writes text in its place.
func (rw *lineRewriter) replace(line int, text string) error {
	if err := rw.copyUntil(line); err != nil {
		return err
	}
	if rw.finished || !rw.scanner.Scan() {
		rw.finished = true
		if err := rw.scanner.Err(); err != nil {
			return err
		}
		return ErrLineOutOfRange
	}
	rw.lineNo++
	rw.output.WriteString(text)
	rw.output.WriteByte('\n')
	return nil
}

func (rw *lineRewriter) copyRest() error {
	for !rw.finished && rw.scanner.Scan() {
		rw.output.Write(rw.scanner.Bytes())
		rw.output.WriteByte('\n')
		rw.lineNo++
	}
	rw.finished = true
	return rw.scanner.Err()
}

// Rewrite copies r to a new buffer, replacing the lines keyed in replacements.
// Every output line is terminated by '\n'.
func Rewrite(r io.Reader, replacements map[int]string) ([]byte, error) {
	lines := make([]int, 0, len(replacements))
	for l := range replacements {
		lines = append(lines, l)
	}
	sort.Ints(lines)

	rw := newLineRewriter(r)
	for _, l := range lines {
		if err := rw.replace(l, replacements[l]); err != nil {
			return nil, err
		}
	}
	if err := rw.copyRest(); err != nil {
		return nil, err
	}
	return rw.output.Bytes(), nil
}
