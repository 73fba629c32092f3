package service

import (
	"context"
	"testing"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

const pingbackHost = "forum.example.com"

func TestExtractPingbacks(t *testing.T) {
	html := `<p>See <a href="/posts/abc">this post</a> and
		<a href="https://forum.example.com/tag/rationality">the wiki</a>,
		plus <a href="https://elsewhere.net/posts/zzz">an external link</a>
		and <a href="/posts/abc">the same post again</a>.</p>`

	set := ExtractPingbacks(html, pingbackHost, nil)

	if len(set[domain.KindPosts]) != 1 || set[domain.KindPosts][0] != "abc" {
		t.Errorf("posts pingbacks = %v, want [abc]", set[domain.KindPosts])
	}
	if len(set[domain.KindTags]) != 1 || set[domain.KindTags][0] != "rationality" {
		t.Errorf("tag pingbacks = %v, want [rationality]", set[domain.KindTags])
	}
}

func TestExtractPingbacks_ExcludesSelf(t *testing.T) {
	html := `<a href="/posts/self">me</a> <a href="/posts/other">other</a>`
	self := domain.DocumentRef{Kind: domain.KindPosts, ID: "self"}

	set := ExtractPingbacks(html, pingbackHost, &self)

	if len(set[domain.KindPosts]) != 1 || set[domain.KindPosts][0] != "other" {
		t.Errorf("pingbacks = %v, want [other]", set[domain.KindPosts])
	}
}

func TestExtractPingbacks_NoInternalLinks(t *testing.T) {
	html := `<a href="https://elsewhere.net/x">x</a> <a href="/about">about</a>`

	if set := ExtractPingbacks(html, pingbackHost, nil); set != nil {
		t.Errorf("expected nil set, got %v", set)
	}
}

// recordingWriter captures the last pingback set written.
type recordingWriter struct {
	ref domain.DocumentRef
	set domain.PingbackSet
}

func (w *recordingWriter) UpdatePingbacks(_ context.Context, ref domain.DocumentRef, set domain.PingbackSet) error {
	w.ref = ref
	w.set = set
	return nil
}

func TestPingbackEffect_Run(t *testing.T) {
	writer := &recordingWriter{}
	effect := NewPingbackEffect(writer, pingbackHost, zerolog.Nop())

	ev := ChangeEvent{
		Ref:     domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"},
		NewHTML: `<a href="/tag/bayes">bayes</a>`,
	}
	if err := effect.Run(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if writer.ref.ID != "p1" {
		t.Errorf("wrote to %v, want p1", writer.ref)
	}
	if len(writer.set[domain.KindTags]) != 1 {
		t.Errorf("set = %v, want one tag", writer.set)
	}
}

func TestPingbackEffect_OverwritesWithEmptySet(t *testing.T) {
	// Removing every link must clear stored pingbacks, not keep stale ones.
	writer := &recordingWriter{set: domain.PingbackSet{domain.KindPosts: {"old"}}}
	effect := NewPingbackEffect(writer, pingbackHost, zerolog.Nop())

	ev := ChangeEvent{
		Ref:     domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"},
		NewHTML: `<p>no links anymore</p>`,
	}
	if err := effect.Run(context.Background(), ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if writer.set != nil {
		t.Errorf("expected cleared set, got %v", writer.set)
	}
}
