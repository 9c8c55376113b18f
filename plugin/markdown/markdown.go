// Package markdown renders note content.
package markdown

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Service renders Markdown notes.
type Service interface {
	// RenderHTML converts Markdown to HTML. Raw HTML in the source is escaped.
	RenderHTML(content string) (string, error)
	// Title returns the text of the first heading, or "" when there is none.
	Title(content string) string
}

type service struct {
	md goldmark.Markdown
}

// Option configures the service.
type Option func(*[]goldmark.Option)

// WithGFM enables GitHub flavored tables, strikethrough, task lists and autolinks.
func WithGFM() Option {
	return func(opts *[]goldmark.Option) {
		*opts = append(*opts, goldmark.WithExtensions(extension.GFM))
	}
}

// NewService creates a markdown service.
func NewService(options ...Option) Service {
	opts := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	for _, option := range options {
		option(&opts)
	}
	return &service{md: goldmark.New(opts...)}
}

func (s *service) RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render markdown")
	}
	return buf.String(), nil
}

func (s *service) Title(content string) string {
	source := []byte(content)
	doc := s.md.Parser().Parse(text.NewReader(source))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			var buf strings.Builder
			for line := range heading.Lines().Len() {
				segment := heading.Lines().At(line)
				buf.Write(segment.Value(source))
			}
			title = strings.TrimSpace(buf.String())
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return title
}
