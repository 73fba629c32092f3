package service

import (
	"context"

	"github.com/quillforum/quill-backend/internal/domain"
)

// AccessPolicy decides whether a viewer may read a revision. Denial is a
// boolean "no", not an error: callers decide whether an unreadable revision
// is an error or an empty result.
type AccessPolicy struct {
	loader *DocumentLoader
}

// NewAccessPolicy creates a new AccessPolicy over a document loader.
func NewAccessPolicy(loader *DocumentLoader) *AccessPolicy {
	return &AccessPolicy{loader: loader}
}

// CanView evaluates the decision order, first match wins:
//  1. authors can always see their own revisions
//  2. the global view-all capability sees everything
//  3. load the owning document (absent owner denies)
//  4. posts grant access at collaborative-editing level read or above
//  5. remaining draft revisions are denied
//  6. non-draft revisions defer to the owning document's visibility rules
func (a *AccessPolicy) CanView(ctx context.Context, user *domain.User, rev *domain.Revision) bool {
	if rev == nil {
		return false
	}
	if user != nil && user.ID == rev.UserID {
		return true
	}
	if user.CanViewAllDrafts() {
		return true
	}

	policy, ok := domain.PolicyFor(rev.CollectionName)
	if !ok {
		return false
	}
	if rev.DocumentID == "" {
		return false
	}

	doc, err := a.loader.Load(ctx, domain.DocumentRef{Kind: rev.CollectionName, ID: rev.DocumentID})
	if err != nil || doc == nil {
		return false
	}

	if sharable, ok := doc.(domain.Sharable); ok && policy.CollaborativeEditing {
		if sharable.CollabAccessFor(user).Can(domain.AccessRead) {
			return true
		}
	}

	if rev.Draft {
		return false
	}

	return doc.CanRead(user)
}

// Prefetch batches the owning-document loads for a list of revisions so that
// filtering N revisions costs O(1) queries, not O(N).
func (a *AccessPolicy) Prefetch(ctx context.Context, revisions []*domain.Revision) {
	refs := make([]domain.DocumentRef, 0, len(revisions))
	for _, rev := range revisions {
		if rev.DocumentID != "" {
			refs = append(refs, domain.DocumentRef{Kind: rev.CollectionName, ID: rev.DocumentID})
		}
	}
	_ = a.loader.LoadMany(ctx, refs)
}

// FilterViewable returns the subset of revisions the user may read,
// prefetching owners in one batch.
func (a *AccessPolicy) FilterViewable(ctx context.Context, user *domain.User, revisions []*domain.Revision) []*domain.Revision {
	a.Prefetch(ctx, revisions)
	visible := make([]*domain.Revision, 0, len(revisions))
	for _, rev := range revisions {
		if a.CanView(ctx, user, rev) {
			visible = append(visible, rev)
		}
	}
	return visible
}
