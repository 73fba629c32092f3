package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/rs/zerolog"
)

// EditPayload is the revision-relevant part of a document mutation request.
type EditPayload struct {
	OriginalContents domain.ContentPayload
	UpdateType       domain.UpdateType // defaulted: initial on first revision, minor after
	CommitMessage    string
	// BaseRevisionID, when supplied, is the revision the client edited
	// from. A mutation whose base is no longer the latest revision is
	// rejected with ErrConflict instead of silently forking the chain.
	BaseRevisionID string
}

// HasContents reports whether the payload carries content to revise.
func (p *EditPayload) HasContents() bool {
	return p != nil && !p.OriginalContents.IsEmpty()
}

// PreflightCheck validates, before anything is written, that a document
// create will not leave dependent state inconsistent.
type PreflightCheck interface {
	Name() string
	ValidateCreate(ctx context.Context, user *domain.User, doc domain.EditableDocument, rendered *RenderedContent) error
}

// MutationPipeline intercepts create/update operations on documents with
// editable fields and orchestrates revision creation plus side effects.
// Side-effect handlers are injected in order at construction; there is no
// global hook registry.
type MutationPipeline struct {
	revisions  repository.RevisionRepository
	docs       repository.DocumentStore
	converter  ContentConverter
	dispatcher *SideEffectDispatcher
	effects    []SideEffect
	preflights []PreflightCheck
	log        zerolog.Logger
}

// NewMutationPipeline creates a new MutationPipeline
func NewMutationPipeline(
	revisions repository.RevisionRepository,
	docs repository.DocumentStore,
	converter ContentConverter,
	dispatcher *SideEffectDispatcher,
	effects []SideEffect,
	preflights []PreflightCheck,
	log zerolog.Logger,
) *MutationPipeline {
	return &MutationPipeline{
		revisions:  revisions,
		docs:       docs,
		converter:  converter,
		dispatcher: dispatcher,
		effects:    effects,
		preflights: preflights,
		log:        log.With().Str("component", "mutation_pipeline").Logger(),
	}
}

// CreateDocument inserts a new document. If payload carries contents, the
// field's first revision is created before the document row (a crash in
// between leaves an orphaned-but-harmless revision, never a document
// pointing at a nonexistent revision); the revision's documentId is
// back-filled once the document's id is known.
func (p *MutationPipeline) CreateDocument(ctx context.Context, user *domain.User, doc domain.EditableDocument, field string, payload *EditPayload) (*domain.Revision, error) {
	if !payload.HasContents() {
		// Not every mutation touches content.
		return nil, p.docs.Insert(ctx, doc)
	}
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if payload.UpdateType != "" && !payload.UpdateType.Valid() {
		return nil, common.ErrInvalidUpdateType
	}

	rendered, err := p.converter.Render(ctx, payload.OriginalContents.Data, payload.OriginalContents.Type, !user.IsPrivileged())
	if err != nil {
		return nil, err
	}

	for _, check := range p.preflights {
		if err := check.ValidateCreate(ctx, user, doc, rendered); err != nil {
			return nil, err
		}
	}

	targetDraft := p.effectiveDraft(doc)
	version := domain.InitialVersion(targetDraft)
	now := time.Now()

	rev := &domain.Revision{
		ID:             uuid.NewString(),
		CollectionName: doc.Kind(),
		FieldName:      field,
		Version:        version,
		Draft:          domain.VersionIsDraft(version, doc.Kind()),
		UpdateType:     domain.UpdateTypeInitial,
		OriginalContents: payload.OriginalContents,
		HTML:           rendered.HTML,
		WordCount:      rendered.WordCount,
		ChangeMetrics:  ComputeChangeMetrics("", rendered.HTML),
		CommitMessage:  payload.CommitMessage,
		UserID:         user.ID,
		EditedAt:       now,
	}
	if err := p.revisions.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("create first revision: %w", err)
	}

	doc.SetLatestRevision(field, rev.ID)
	doc.SetContentSnapshot(field, domain.ContentSnapshot{
		HTML:      rendered.HTML,
		Version:   version,
		UserID:    user.ID,
		EditedAt:  now,
		WordCount: rendered.WordCount,
	})
	if err := p.docs.Insert(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert %s: %w", doc.Kind(), err)
	}

	// The document id exists only now; link the revision back.
	if err := p.revisions.BackfillDocumentID(ctx, rev.ID, doc.GetID()); err != nil {
		return nil, fmt.Errorf("backfill revision document id: %w", err)
	}
	rev.DocumentID = doc.GetID()

	p.dispatch(doc, field, rev, "")
	return rev, nil
}

// UpdateDocument persists an edit to an existing document. doc carries the
// new field values including the new draft state; wasDraft is the state
// before the edit, used for undraft detection. If payload carries no
// contents the document is saved without touching the revision chain.
func (p *MutationPipeline) UpdateDocument(ctx context.Context, user *domain.User, doc domain.EditableDocument, wasDraft bool, field string, payload *EditPayload) (*domain.Revision, error) {
	if !payload.HasContents() {
		return nil, p.docs.Update(ctx, doc)
	}
	if user == nil {
		return nil, common.ErrUnauthenticated
	}
	if payload.UpdateType != "" && !payload.UpdateType.Valid() {
		return nil, common.ErrInvalidUpdateType
	}

	prev, err := p.revisions.Latest(ctx, doc.GetID(), field)
	if err != nil {
		return nil, fmt.Errorf("load latest revision: %w", err)
	}
	if payload.BaseRevisionID != "" && prev != nil && prev.ID != payload.BaseRevisionID {
		return nil, common.ErrConflict
	}

	rendered, err := p.converter.Render(ctx, payload.OriginalContents.Data, payload.OriginalContents.Type, !user.IsPrivileged())
	if err != nil {
		return nil, err
	}

	// Unchanged contents with no commit message do not fork a new
	// revision; the pointer keeps referencing the latest one. An undraft
	// is excluded: publishing always mints the forced-major revision even
	// when the contents are byte-identical.
	undraft := wasDraft && !p.effectiveDraft(doc)
	if !undraft && prev != nil && prev.OriginalContents == payload.OriginalContents && payload.CommitMessage == "" {
		doc.SetLatestRevision(field, prev.ID)
		return prev, p.docs.Update(ctx, doc)
	}

	updateType := payload.UpdateType
	if updateType == "" {
		if prev == nil {
			updateType = domain.UpdateTypeInitial
		} else {
			updateType = domain.UpdateTypeMinor
		}
	}

	targetDraft := p.effectiveDraft(doc)
	// Publishing a draft for the first time always constitutes a major
	// update, even when the content change itself is small.
	if undraft && prev != nil {
		if v, err := domain.ParseVersion(prev.Version); err == nil && v.Major < 1 {
			updateType = domain.UpdateTypeMajor
		}
	}

	version, err := domain.NextVersion(prev, updateType, targetDraft)
	if err != nil {
		return nil, err
	}

	prevHTML := ""
	if prev != nil {
		prevHTML = prev.HTML
	}
	now := time.Now()

	rev := &domain.Revision{
		ID:             uuid.NewString(),
		DocumentID:     doc.GetID(),
		CollectionName: doc.Kind(),
		FieldName:      field,
		Version:        version,
		Draft:          domain.VersionIsDraft(version, doc.Kind()),
		UpdateType:     updateType,
		OriginalContents: payload.OriginalContents,
		HTML:           rendered.HTML,
		WordCount:      rendered.WordCount,
		ChangeMetrics:  ComputeChangeMetrics(prevHTML, rendered.HTML),
		CommitMessage:  payload.CommitMessage,
		UserID:         user.ID,
		EditedAt:       now,
	}
	if err := p.revisions.Create(ctx, rev); err != nil {
		return nil, fmt.Errorf("create revision: %w", err)
	}

	doc.SetLatestRevision(field, rev.ID)
	doc.SetContentSnapshot(field, domain.ContentSnapshot{
		HTML:      rendered.HTML,
		Version:   version,
		UserID:    user.ID,
		EditedAt:  now,
		WordCount: rendered.WordCount,
	})
	if err := p.docs.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update %s: %w", doc.Kind(), err)
	}

	p.dispatch(doc, field, rev, prevHTML)
	return rev, nil
}

// effectiveDraft resolves the document draft flag through the kind policy:
// kinds without a draft concept are never drafts.
func (p *MutationPipeline) effectiveDraft(doc domain.EditableDocument) bool {
	if policy, ok := domain.PolicyFor(doc.Kind()); ok && !policy.HasDrafts {
		return false
	}
	return doc.IsDraft()
}

func (p *MutationPipeline) dispatch(doc domain.EditableDocument, field string, rev *domain.Revision, oldHTML string) {
	if p.dispatcher == nil || len(p.effects) == 0 {
		return
	}
	p.dispatcher.Dispatch(p.effects, ChangeEvent{
		Ref:        domain.DocumentRef{Kind: doc.Kind(), ID: doc.GetID()},
		FieldName:  field,
		RevisionID: rev.ID,
		ActorID:    rev.UserID,
		NewHTML:    rev.HTML,
		OldHTML:    oldHTML,
	})
}
