package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

// fakeAssetStore serves uploads from a fixed host and remembers what was
// uploaded.
type fakeAssetStore struct {
	uploads int
}

func (s *fakeAssetStore) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	s.uploads++
	return "https://cdn.quill.test/" + key, nil
}

func (s *fakeAssetStore) PublicHost() string { return "cdn.quill.test" }

// fakeHTMLStore holds one document field's cached HTML.
type fakeHTMLStore struct {
	html    string
	updates int
}

func (s *fakeHTMLStore) ContentHTML(_ context.Context, _ domain.DocumentRef, _ string) (string, error) {
	return s.html, nil
}

func (s *fakeHTMLStore) UpdateContentHTML(_ context.Context, _ domain.DocumentRef, _ string, html string) error {
	s.html = html
	s.updates++
	return nil
}

func rehostEvent() ChangeEvent {
	return ChangeEvent{
		Ref:       domain.DocumentRef{Kind: domain.KindPosts, ID: "p1"},
		FieldName: domain.FieldContents,
	}
}

func TestImageRehost_RewritesExternalImages(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG fake bytes"))
	}))
	defer origin.Close()

	store := &fakeAssetStore{}
	docs := &fakeHTMLStore{
		html: fmt.Sprintf(`<p>pasted: <img alt="x" src="%s/pic.png"></p>`, origin.URL),
	}
	effect := NewImageRehostEffect(store, docs, zerolog.Nop())

	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.uploads != 1 {
		t.Errorf("uploads = %d, want 1", store.uploads)
	}
	if strings.Contains(docs.html, origin.URL) {
		t.Errorf("external source survived rewrite: %q", docs.html)
	}
	if !strings.Contains(docs.html, `src="https://cdn.quill.test/rehosted/`) {
		t.Errorf("expected rehosted source: %q", docs.html)
	}
}

func TestImageRehost_Idempotent(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer origin.Close()

	store := &fakeAssetStore{}
	docs := &fakeHTMLStore{html: fmt.Sprintf(`<img src="%s/a.jpg">`, origin.URL)}
	effect := NewImageRehostEffect(store, docs, zerolog.Nop())

	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if store.uploads != 1 {
		t.Errorf("second run must find nothing to do; uploads = %d", store.uploads)
	}
	if docs.updates != 1 {
		t.Errorf("second run must not rewrite; updates = %d", docs.updates)
	}
}

func TestImageRehost_SkipsRelativeAndLocalSources(t *testing.T) {
	store := &fakeAssetStore{}
	docs := &fakeHTMLStore{
		html: `<img src="/uploads/local.png"> <img src="https://cdn.quill.test/rehosted/x.png">`,
	}
	effect := NewImageRehostEffect(store, docs, zerolog.Nop())

	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.uploads != 0 || docs.updates != 0 {
		t.Errorf("nothing external: uploads=%d updates=%d", store.uploads, docs.updates)
	}
}

func TestImageRehost_LeavesFailedFetchesAlone(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer origin.Close()

	store := &fakeAssetStore{}
	original := fmt.Sprintf(`<img src="%s/gone.png">`, origin.URL)
	docs := &fakeHTMLStore{html: original}
	effect := NewImageRehostEffect(store, docs, zerolog.Nop())

	// A dead origin is not an error: the original source stays in place.
	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs.html != original {
		t.Errorf("html changed despite failed fetch: %q", docs.html)
	}
}

func TestImageRehost_RejectsNonImageContent(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer origin.Close()

	store := &fakeAssetStore{}
	docs := &fakeHTMLStore{html: fmt.Sprintf(`<img src="%s/fake.png">`, origin.URL)}
	effect := NewImageRehostEffect(store, docs, zerolog.Nop())

	if err := effect.Run(context.Background(), rehostEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.uploads != 0 {
		t.Errorf("non-image content must not be uploaded; uploads = %d", store.uploads)
	}
}
