package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quillforum/quill-backend/internal/common"
)

func TestRender_HTMLPassthrough(t *testing.T) {
	conv := NewContentConverter()

	out, err := conv.Render(context.Background(), "<p>hello <strong>world</strong></p>", ContentTypeHTML, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.HTML != "<p>hello <strong>world</strong></p>" {
		t.Errorf("unexpected HTML: %q", out.HTML)
	}
	if out.WordCount != 2 {
		t.Errorf("word count = %d, want 2", out.WordCount)
	}
}

func TestRender_HTMLSanitized(t *testing.T) {
	conv := NewContentConverter()

	out, err := conv.Render(context.Background(), `<p>hi</p><script>alert(1)</script>`, ContentTypeHTML, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out.HTML, "script") {
		t.Errorf("script tag survived sanitization: %q", out.HTML)
	}
	if !strings.Contains(out.HTML, "<p>hi</p>") {
		t.Errorf("benign markup removed: %q", out.HTML)
	}
}

func TestRender_PrivilegedSkipsSanitization(t *testing.T) {
	conv := NewContentConverter()

	raw := `<p>widget</p><iframe src="https://example.com/embed"></iframe>`
	out, err := conv.Render(context.Background(), raw, ContentTypeHTML, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.HTML, "iframe") {
		t.Errorf("unsanitized render must preserve markup: %q", out.HTML)
	}
}

func TestRender_Markdown(t *testing.T) {
	conv := NewContentConverter()

	out, err := conv.Render(context.Background(), "# Title\n\nSome *emphasized* text.", ContentTypeMarkdown, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.HTML, "<h1") {
		t.Errorf("expected heading in output: %q", out.HTML)
	}
	if !strings.Contains(out.HTML, "<em>emphasized</em>") {
		t.Errorf("expected emphasis in output: %q", out.HTML)
	}
}

func TestRender_RichDoc(t *testing.T) {
	conv := NewContentConverter()

	doc := `{"type":"doc","children":[{"type":"paragraph","children":[{"type":"text","text":"a < b"}]}]}`
	out, err := conv.Render(context.Background(), doc, ContentTypeRichDoc, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.HTML, "<p>a &lt; b</p>") {
		t.Errorf("unexpected rich-doc output: %q", out.HTML)
	}
}

func TestRender_MalformedRichDoc(t *testing.T) {
	conv := NewContentConverter()

	_, err := conv.Render(context.Background(), "{not json", ContentTypeRichDoc, true)
	var convErr *common.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.ContentType != ContentTypeRichDoc {
		t.Errorf("ContentType = %q", convErr.ContentType)
	}
}

func TestRender_UnknownContentType(t *testing.T) {
	conv := NewContentConverter()

	_, err := conv.Render(context.Background(), "data", "docx", true)
	var convErr *common.ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestCountWords_StripsMarkup(t *testing.T) {
	out := countWords("<p>one two</p><ul><li>three</li></ul>")
	if out != 3 {
		t.Errorf("countWords = %d, want 3", out)
	}
}
