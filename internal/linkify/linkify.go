// Package linkify detects hyperlinks in task lines so they can be attached to
// parsed tasks.
package linkify

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"todoline/pkg/task"
)

// Detector finds link spans using goldmark's autolink and linkify support.
type Detector struct {
	md goldmark.Markdown
}

// New returns a Detector with the linkify extension enabled.
func New() *Detector {
	return &Detector{md: goldmark.New(goldmark.WithExtensions(extension.Linkify))}
}

// Detect returns every link found on the given lines. Lines are parsed one at a
// time so that spans stay relative to their own line.
func (d *Detector) Detect(lines []string) []task.LinkSpan {
	var spans []task.LinkSpan
	for i, line := range lines {
		if !strings.ContainsAny(line, ":.<") {
			continue
		}
		spans = append(spans, d.detectLine(i, line)...)
	}
	return spans
}

func (d *Detector) detectLine(lineNo int, line string) []task.LinkSpan {
	// leading indentation would turn nested tasks into code blocks
	body := strings.TrimLeft(line, " \t")
	source := []byte(body)
	root := d.md.Parser().Parse(text.NewReader(source))

	var spans []task.LinkSpan
	cursor := len(line) - len(body)
	add := func(label, target string) {
		idx := strings.Index(line[cursor:], label)
		if idx < 0 {
			return
		}
		start := cursor + idx
		spans = append(spans, task.LinkSpan{
			Line:   lineNo,
			Start:  start,
			End:    start + len(label),
			Target: target,
		})
		cursor = start + len(label)
	}

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.AutoLink:
			target := string(node.URL(source))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(target, "mailto:") {
				target = "mailto:" + target
			}
			add(string(node.Label(source)), target)
			return ast.WalkSkipChildren, nil
		case *ast.Link:
			add(string(node.Destination), string(node.Destination))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return spans
}
