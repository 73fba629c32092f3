package service

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/quillforum/quill-backend/internal/common"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Content payload types accepted by the converter.
const (
	ContentTypeHTML     = "html"
	ContentTypeMarkdown = "markdown"
	ContentTypeRichDoc  = "richdoc"
)

// RenderedContent is the converter output: sanitized (or raw, for
// privileged authors) HTML plus a word count derived from it.
type RenderedContent struct {
	HTML      string
	WordCount int
}

// ContentConverter renders raw editor payloads to HTML. Treated as a pure
// function boundary by the mutation pipeline; failures surface as
// *common.ConversionError.
type ContentConverter interface {
	Render(ctx context.Context, data, contentType string, sanitize bool) (*RenderedContent, error)
}

type contentConverter struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewContentConverter creates the default converter: goldmark for markdown,
// passthrough for html, rich-doc JSON flattening, bluemonday sanitization.
func NewContentConverter() ContentConverter {
	return &contentConverter{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Footnote),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		sanitizer: newSanitizerPolicy(),
	}
}

func newSanitizerPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("span", "div", "a")
	p.AllowImages()
	return p
}

func (c *contentConverter) Render(ctx context.Context, data, contentType string, sanitize bool) (*RenderedContent, error) {
	var rendered string
	switch contentType {
	case ContentTypeHTML:
		rendered = data
	case ContentTypeMarkdown:
		var buf bytes.Buffer
		if err := c.markdown.Convert([]byte(data), &buf); err != nil {
			return nil, &common.ConversionError{ContentType: contentType, Reason: "markdown rendering failed", Err: err}
		}
		rendered = buf.String()
	case ContentTypeRichDoc:
		out, err := richDocToHTML(data)
		if err != nil {
			return nil, &common.ConversionError{ContentType: contentType, Reason: "malformed rich document", Err: err}
		}
		rendered = out
	default:
		return nil, &common.ConversionError{ContentType: contentType, Reason: "unknown content type"}
	}

	if sanitize {
		rendered = c.sanitizer.Sanitize(rendered)
	}
	rendered = strings.TrimSpace(rendered)

	return &RenderedContent{
		HTML:      rendered,
		WordCount: countWords(rendered),
	}, nil
}

// richDocNode is the minimal shape of a rich-doc editor node tree.
type richDocNode struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	Children []richDocNode `json:"children,omitempty"`
}

func richDocToHTML(data string) (string, error) {
	var root richDocNode
	if err := json.Unmarshal([]byte(data), &root); err != nil {
		return "", err
	}
	var sb strings.Builder
	renderRichDocNode(&sb, root)
	return sb.String(), nil
}

func renderRichDocNode(sb *strings.Builder, n richDocNode) {
	switch n.Type {
	case "paragraph":
		sb.WriteString("<p>")
		for _, child := range n.Children {
			renderRichDocNode(sb, child)
		}
		sb.WriteString("</p>")
	case "text":
		sb.WriteString(htmlEscape(n.Text))
	default:
		for _, child := range n.Children {
			renderRichDocNode(sb, child)
		}
	}
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// countWords counts whitespace-separated words in the text content of the
// rendered HTML.
func countWords(renderedHTML string) int {
	text := htmlTagPattern.ReplaceAllString(renderedHTML, " ")
	return len(strings.Fields(text))
}
