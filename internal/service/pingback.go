package service

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/rs/zerolog"
)

var anchorHrefPattern = regexp.MustCompile(`<a\s[^>]*href="([^"]+)"`)

// Site-internal paths that identify documents.
var pingbackPathKinds = map[string]domain.DocumentKind{
	"posts":    domain.KindPosts,
	"tag":      domain.KindTags,
	"comments": domain.KindComments,
	"lenses":   domain.KindLenses,
}

// ExtractPingbacks scans rendered HTML for links to other documents on this
// site and returns the referenced ids grouped by kind. excludeSelf drops
// self-references (a document linking to itself is not a pingback).
func ExtractPingbacks(html, siteHost string, excludeSelf *domain.DocumentRef) domain.PingbackSet {
	set := make(domain.PingbackSet)
	seen := make(map[domain.DocumentRef]bool)

	for _, m := range anchorHrefPattern.FindAllStringSubmatch(html, -1) {
		ref, ok := parseDocumentURL(m[1], siteHost)
		if !ok {
			continue
		}
		if excludeSelf != nil && ref == *excludeSelf {
			continue
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		set[ref.Kind] = append(set[ref.Kind], ref.ID)
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

func parseDocumentURL(href, siteHost string) (domain.DocumentRef, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return domain.DocumentRef{}, false
	}
	// Relative links are always site-internal; absolute ones must match.
	if u.Host != "" && !strings.EqualFold(u.Host, siteHost) {
		return domain.DocumentRef{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return domain.DocumentRef{}, false
	}
	kind, ok := pingbackPathKinds[parts[0]]
	if !ok || parts[1] == "" {
		return domain.DocumentRef{}, false
	}
	return domain.DocumentRef{Kind: kind, ID: parts[1]}, true
}

// PingbackWriter stores a pingback set on the owning document.
type PingbackWriter interface {
	UpdatePingbacks(ctx context.Context, ref domain.DocumentRef, set domain.PingbackSet) error
}

// PingbackEffect records references to other documents found in the new
// rendered HTML. Pingbacks live on the owning document, not the revision,
// so re-running simply overwrites with the same set.
type PingbackEffect struct {
	writer   PingbackWriter
	siteHost string
	log      zerolog.Logger
}

// NewPingbackEffect creates the pingback extraction side effect.
func NewPingbackEffect(writer PingbackWriter, siteHost string, log zerolog.Logger) *PingbackEffect {
	return &PingbackEffect{writer: writer, siteHost: siteHost, log: log}
}

func (e *PingbackEffect) Name() string { return "pingback_extraction" }

func (e *PingbackEffect) Run(ctx context.Context, ev ChangeEvent) error {
	policy, ok := domain.PolicyFor(ev.Ref.Kind)
	if !ok || !policy.Pingbacks {
		return nil
	}
	self := ev.Ref
	set := ExtractPingbacks(ev.NewHTML, e.siteHost, &self)
	return e.writer.UpdatePingbacks(ctx, ev.Ref, set)
}
