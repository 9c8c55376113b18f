package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	svc := NewService(WithGFM())

	tests := []struct {
		name     string
		content  string
		contains []string
		excludes []string
	}{
		{
			name:     "heading and list",
			content:  "# Photosynthesis\n\n- light\n- water\n",
			contains: []string{`<h1 id="photosynthesis">Photosynthesis</h1>`, "<li>light</li>"},
		},
		{
			name:     "gfm table",
			content:  "| a | b |\n|---|---|\n| 1 | 2 |\n",
			contains: []string{"<table>", "<td>1</td>"},
		},
		{
			name:     "raw html is not passed through",
			content:  "<script>alert(1)</script>\n",
			excludes: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := svc.RenderHTML(tt.content)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, html, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, html, s)
			}
		})
	}
}

func TestTitle(t *testing.T) {
	svc := NewService()
	assert.Equal(t, "Cell Biology", svc.Title("intro text\n\n## Cell Biology\n\n# Later\n"))
	assert.Equal(t, "", svc.Title("no headings here"))
}
