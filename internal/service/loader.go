package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/repository"
	pkgcache "github.com/quillforum/quill-backend/pkg/cache"
)

// DocumentLoader is a request-scoped, memoizing loader for owning documents.
// Listing N revisions of the same document costs one lookup; mixed lists can
// prefetch whole batches with one query per kind via LoadMany. A shared
// redis cache, when available, absorbs repeated loads across requests.
//
// A loader must not outlive its request: memoized documents are never
// invalidated.
type DocumentLoader struct {
	finder repository.DocumentFinder
	cache  pkgcache.Service

	mu   sync.Mutex
	docs map[domain.DocumentRef]domain.EditableDocument
}

// NewDocumentLoader creates a loader. cache may be nil (non-interactive
// contexts like email generation use the direct, uncached path).
func NewDocumentLoader(finder repository.DocumentFinder, cache pkgcache.Service) *DocumentLoader {
	return &DocumentLoader{
		finder: finder,
		cache:  cache,
		docs:   make(map[domain.DocumentRef]domain.EditableDocument),
	}
}

// Load returns the document for ref, memoized for the lifetime of the loader.
func (l *DocumentLoader) Load(ctx context.Context, ref domain.DocumentRef) (domain.EditableDocument, error) {
	l.mu.Lock()
	if doc, ok := l.docs[ref]; ok {
		l.mu.Unlock()
		return doc, nil
	}
	l.mu.Unlock()

	if doc, ok := l.cachedDocument(ctx, ref); ok {
		l.mu.Lock()
		l.docs[ref] = doc
		l.mu.Unlock()
		return doc, nil
	}

	doc, err := l.finder.Find(ctx, ref)
	if err != nil {
		return nil, err
	}
	if l.cache != nil {
		_ = l.cache.SetDocument(ctx, ref, doc)
	}

	l.mu.Lock()
	l.docs[ref] = doc
	l.mu.Unlock()
	return doc, nil
}

func (l *DocumentLoader) cachedDocument(ctx context.Context, ref domain.DocumentRef) (domain.EditableDocument, bool) {
	if l.cache == nil {
		return nil, false
	}
	raw, err := l.cache.GetDocument(ctx, ref)
	if err != nil || raw == nil {
		return nil, false
	}
	doc, err := repository.EmptyDocument(ref.Kind)
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, false
	}
	return doc, true
}

// LoadMany prefetches a batch of refs, one query per kind, and memoizes the
// results. Missing documents are skipped, not errors: the access policy
// treats an absent owner as a deny.
func (l *DocumentLoader) LoadMany(ctx context.Context, refs []domain.DocumentRef) error {
	byKind := make(map[domain.DocumentKind][]string)

	l.mu.Lock()
	for _, ref := range refs {
		if _, ok := l.docs[ref]; ok {
			continue
		}
		byKind[ref.Kind] = append(byKind[ref.Kind], ref.ID)
	}
	l.mu.Unlock()

	for kind, ids := range byKind {
		found, err := l.finder.FindMany(ctx, kind, ids)
		if err != nil {
			return err
		}
		l.mu.Lock()
		for id, doc := range found {
			l.docs[domain.DocumentRef{Kind: kind, ID: id}] = doc
		}
		l.mu.Unlock()
	}
	return nil
}
