package linkify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoline/pkg/task"
)

func TestDetect_URLs(t *testing.T) {
	lines := []string{
		"read https://go.dev/doc later #reading",
		"no links here",
		"    nested see https://example.com/a",
	}
	spans := New().Detect(lines)
	require.Len(t, spans, 2)

	assert.Equal(t, task.LinkSpan{Line: 0, Start: 5, End: 23, Target: "https://go.dev/doc"}, spans[0])
	assert.Equal(t, 2, spans[1].Line)
	assert.Equal(t, "https://example.com/a", lines[2][spans[1].Start:spans[1].End])
}

func TestDetect_MarkdownLink(t *testing.T) {
	lines := []string{
		"check [docs](https://pkg.go.dev) today",
	}
	spans := New().Detect(lines)
	require.Len(t, spans, 1)

	assert.Equal(t, "https://pkg.go.dev", spans[0].Target)
	assert.Equal(t, "https://pkg.go.dev", lines[0][spans[0].Start:spans[0].End])
}

func TestDetect_Empty(t *testing.T) {
	assert.Empty(t, New().Detect(nil))
	assert.Empty(t, New().Detect([]string{"", "(A) plain #tag"}))
}
