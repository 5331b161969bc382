package parser

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"todoline/internal/due"
	"todoline/pkg/task"
)

const frontmatterDelimiter = "---"

// Document is the result of one full parse pass. It is never mutated after
// ParseDocument returns; a re-parse produces a new Document.
type Document struct {
	Lines        []string
	Tasks        []*task.Task // flat, in source order
	Tree         []*task.Task // root tasks, in source order
	CommentLines []int
	// Frontmatter holds the decoded leading --- block, nil when absent or malformed.
	Frontmatter map[string]any
	// BodyStart is the index of the first line after the frontmatter block.
	BodyStart int
}

// ParseDocument parses every line, attaches link spans and builds the task tree.
func ParseDocument(lines []string, links []task.LinkSpan, opts Options) *Document {
	doc := &Document{Lines: lines}
	doc.BodyStart, doc.Frontmatter = splitFrontmatter(lines)

	for i := doc.BodyStart; i < len(lines); i++ {
		parsed := ParseLine(lines[i], i, opts)
		switch parsed.Kind {
		case LineComment:
			doc.CommentLines = append(doc.CommentLines, i)
		case LineTask:
			doc.Tasks = append(doc.Tasks, parsed.Task)
		}
	}

	if len(links) > 0 {
		byLine := make(map[int][]task.LinkSpan, len(links))
		for _, l := range links {
			byLine[l.Line] = append(byLine[l.Line], l)
		}
		for _, t := range doc.Tasks {
			for _, l := range byLine[t.LineNumber] {
				t.Links = append(t.Links, task.Link{
					Value:  l.Target,
					Scheme: scheme(l.Target),
					Range:  task.Range{Start: l.Start, End: l.End},
				})
			}
		}
	}

	for _, t := range doc.Tasks {
		if t.Overdue != "" && t.Due != nil {
			d := due.Classify(t.Due.Raw, opts.TargetDate, t.Overdue)
			t.Due = &d
		}
	}

	assignParents(doc.Tasks)
	doc.Tree = buildTree(doc.Tasks)
	return doc
}

// assignParents links each indented task to the nearest preceding task with a
// strictly smaller indentation level. Jumps of several levels attach to that
// nearest shallower task rather than failing.
func assignParents(tasks []*task.Task) {
	var stack []*task.Task
	for _, t := range tasks {
		for len(stack) > 0 && stack[len(stack)-1].IndentLvl >= t.IndentLvl {
			stack = stack[:len(stack)-1]
		}
		if t.IndentLvl > 0 && len(stack) > 0 {
			parent := stack[len(stack)-1].LineNumber
			t.ParentLineNumber = &parent
		}
		stack = append(stack, t)
	}
}

func buildTree(tasks []*task.Task) []*task.Task {
	byLine := make(map[int]*task.Task, len(tasks))
	for _, t := range tasks {
		t.Subtasks = []*task.Task{}
		byLine[t.LineNumber] = t
	}
	var roots []*task.Task
	for _, t := range tasks {
		if t.ParentLineNumber != nil {
			if parent, ok := byLine[*t.ParentLineNumber]; ok {
				parent.Subtasks = append(parent.Subtasks, t)
				continue
			}
		}
		roots = append(roots, t)
	}
	return roots
}

// splitFrontmatter detects a leading --- block and decodes it as YAML.
// Without a closing delimiter the whole document is treated as body.
func splitFrontmatter(lines []string) (int, map[string]any) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterDelimiter {
		return 0, nil
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != frontmatterDelimiter {
			continue
		}
		var meta map[string]any
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "\n")), &meta); err != nil {
			meta = nil
		}
		return i + 1, meta
	}
	return 0, nil
}

// Title returns the frontmatter "title" value, or "" when unset or not a string.
func (d *Document) Title() string {
	title, _ := d.Frontmatter["title"].(string)
	return strings.TrimSpace(title)
}

func scheme(target string) string {
	if i := strings.Index(target, ":"); i > 0 {
		return strings.ToLower(target[:i])
	}
	return ""
}

// ReadLines reads a task file into lines, stripping line terminators.
func ReadLines(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filename, err)
	}
	return lines, nil
}

// ParseFile reads and parses a task file without link detection.
func ParseFile(filename string, opts Options) (*Document, error) {
	lines, err := ReadLines(filename)
	if err != nil {
		return nil, err
	}
	return ParseDocument(lines, nil, opts), nil
}
