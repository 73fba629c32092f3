package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

var imgSrcPattern = regexp.MustCompile(`<img\s[^>]*src="([^"]+)"`)

// AssetStore uploads rehosted images. Implemented by pkg/storage.
type AssetStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	// PublicHost is the host images are served from after rehosting;
	// sources already on it are skipped.
	PublicHost() string
}

// ContentHTMLStore reads and rewrites the denormalized cached HTML of a
// document field. The immutable revision is never touched.
type ContentHTMLStore interface {
	ContentHTML(ctx context.Context, ref domain.DocumentRef, field string) (string, error)
	UpdateContentHTML(ctx context.Context, ref domain.DocumentRef, field, html string) error
}

// ImageRehostEffect re-uploads externally-hosted images found in rendered
// content to the application's own asset store. This defends against
// third-party rate limits on pasted content (images pasted from word
// processors reference the origin host and often stop loading).
//
// Idempotent: it reads the document's current cached HTML, and once every
// image points at the asset store host a re-run finds nothing to do.
type ImageRehostEffect struct {
	store  AssetStore
	docs   ContentHTMLStore
	client *http.Client
	log    zerolog.Logger

	maxBytes int64
}

// NewImageRehostEffect creates the image rehosting side effect.
func NewImageRehostEffect(store AssetStore, docs ContentHTMLStore, log zerolog.Logger) *ImageRehostEffect {
	return &ImageRehostEffect{
		store:    store,
		docs:     docs,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.With().Str("component", "image_rehost").Logger(),
		maxBytes: 20 * 1024 * 1024,
	}
}

func (e *ImageRehostEffect) Name() string { return "image_rehost" }

func (e *ImageRehostEffect) Run(ctx context.Context, ev ChangeEvent) error {
	html, err := e.docs.ContentHTML(ctx, ev.Ref, ev.FieldName)
	if err != nil {
		return fmt.Errorf("load cached html for %s: %w", ev.Ref, err)
	}
	if html == "" {
		return nil
	}

	replacements := make(map[string]string)
	for _, m := range imgSrcPattern.FindAllStringSubmatch(html, -1) {
		src := m[1]
		if _, done := replacements[src]; done || !e.isExternal(src) {
			continue
		}
		hosted, err := e.rehostOne(ctx, src)
		if err != nil {
			e.log.Warn().Err(err).Str("src", src).Str("document", ev.Ref.String()).
				Msg("failed to rehost image, leaving original source")
			continue
		}
		replacements[src] = hosted
	}
	if len(replacements) == 0 {
		return nil
	}

	for src, hosted := range replacements {
		html = strings.ReplaceAll(html, `src="`+src+`"`, `src="`+hosted+`"`)
	}
	return e.docs.UpdateContentHTML(ctx, ev.Ref, ev.FieldName, html)
}

func (e *ImageRehostEffect) isExternal(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return !strings.EqualFold(u.Host, e.store.PublicHost())
}

func (e *ImageRehostEffect) rehostOne(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", src, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(body)
		if !strings.HasPrefix(contentType, "image/") {
			return "", fmt.Errorf("fetch %s: not an image (%s)", src, contentType)
		}
	}

	ext := path.Ext(src)
	if ext == "" || len(ext) > 5 {
		ext = extensionFor(contentType)
	}
	key := "rehosted/" + uuid.NewString() + ext
	return e.store.Upload(ctx, key, contentType, bytes.NewReader(body), int64(len(body)))
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".jpg"
	}
}
