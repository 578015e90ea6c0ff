package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	conv := NewConverter()

	t.Run("renders headings and paragraphs", func(t *testing.T) {
		html := `<html><head><title>ignored</title></head><body>
			<h1>Getting Started</h1>
			<p>Welcome to the help file.</p>
		</body></html>`

		out, err := conv.Convert(html)
		require.NoError(t, err)
		assert.Contains(t, out, "# Getting Started")
		assert.Contains(t, out, "Welcome to the help file.")
	})

	t.Run("strips scripts and page chrome", func(t *testing.T) {
		html := `<html><body>
			<script>alert('x')</script>
			<style>.a { color: red }</style>
			<nav>Breadcrumbs</nav>
			<header>Site Header</header>
			<footer>Copyright</footer>
			<h1>API Reference</h1>
			<p>Function details here.</p>
		</body></html>`

		out, err := conv.Convert(html)
		require.NoError(t, err)
		assert.Contains(t, out, "API Reference")
		assert.Contains(t, out, "Function details here.")
		assert.NotContains(t, out, "alert")
		assert.NotContains(t, out, "Breadcrumbs")
		assert.NotContains(t, out, "Site Header")
		assert.NotContains(t, out, "Copyright")
		assert.NotContains(t, out, "color: red")
	})

	t.Run("keeps links and drops images", func(t *testing.T) {
		html := `<body><p>See <a href="other.html">the other page</a>.</p>
			<img src="diagram.png" alt="diagram"></body>`

		out, err := conv.Convert(html)
		require.NoError(t, err)
		assert.Contains(t, out, "[the other page](other.html)")
		assert.NotContains(t, out, "diagram.png")
		assert.NotContains(t, out, "![")
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		out, err := conv.Convert("<p>unclosed paragraph <b>bold")
		require.NoError(t, err)
		assert.Contains(t, out, "unclosed paragraph")
	})

	t.Run("ends with a single trailing newline", func(t *testing.T) {
		out, err := conv.Convert("<p>text</p>")
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(out, "\n"))
		assert.False(t, strings.HasSuffix(out, "\n\n"))
	})
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "drops navigation breadcrumbs",
			input: "**Navigation:** Home > Install\n\nContent line",
			want:  "Content line\n",
		},
		{
			name:  "drops indented navigation breadcrumbs",
			input: "   **Navigation:** Home\nContent line",
			want:  "Content line\n",
		},
		{
			name:  "drops lines of empty links",
			input: "[](a.htm) [](b.htm)\nReal text",
			want:  "Real text\n",
		},
		{
			name:  "keeps lines with labeled links",
			input: "[Next](a.htm)",
			want:  "[Next](a.htm)\n",
		},
		{
			name:  "collapses blank runs",
			input: "First\n\n\n\n\nSecond",
			want:  "First\n\nSecond\n",
		},
		{
			name:  "trims surrounding whitespace",
			input: "\n\n\nOnly line\n\n\n",
			want:  "Only line\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdown(tt.input))
		})
	}
}
