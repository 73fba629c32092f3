package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// DocumentStore persists one editable document kind. The mutation pipeline
// only needs insert and update; ids are assigned here on insert so that
// create flows can back-fill the first revision's documentId afterwards.
type DocumentStore interface {
	Insert(ctx context.Context, doc domain.EditableDocument) error
	Update(ctx context.Context, doc domain.EditableDocument) error
}

// DocumentFinder loads documents of any kind for the access policy. FindMany
// exists so that listing N revisions costs one query per kind via batching,
// not N lookups.
type DocumentFinder interface {
	Find(ctx context.Context, ref domain.DocumentRef) (domain.EditableDocument, error)
	FindMany(ctx context.Context, kind domain.DocumentKind, ids []string) (map[string]domain.EditableDocument, error)
}

// DocumentRepository implements DocumentStore and DocumentFinder over the
// closed set of document kinds.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Insert(ctx context.Context, doc domain.EditableDocument) error {
	if doc.GetID() == "" {
		doc.SetID(uuid.NewString())
	}
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) Update(ctx context.Context, doc domain.EditableDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *DocumentRepository) Find(ctx context.Context, ref domain.DocumentRef) (domain.EditableDocument, error) {
	doc, err := EmptyDocument(ref.Kind)
	if err != nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Where("id = ?", ref.ID).First(doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrDocumentMissing
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepository) FindMany(ctx context.Context, kind domain.DocumentKind, ids []string) (map[string]domain.EditableDocument, error) {
	result := make(map[string]domain.EditableDocument, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	switch kind {
	case domain.KindPosts:
		var rows []*domain.Post
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, d := range rows {
			result[d.ID] = d
		}
	case domain.KindTags:
		var rows []*domain.Tag
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, d := range rows {
			result[d.ID] = d
		}
	case domain.KindComments:
		var rows []*domain.Comment
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, d := range rows {
			result[d.ID] = d
		}
	case domain.KindLenses:
		var rows []*domain.Lens
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, d := range rows {
			result[d.ID] = d
		}
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	return result, nil
}

// EmptyDocument returns a zero value of the model for a kind, for callers
// that need to deserialize into the right concrete type.
func EmptyDocument(kind domain.DocumentKind) (domain.EditableDocument, error) {
	switch kind {
	case domain.KindPosts:
		return &domain.Post{}, nil
	case domain.KindTags:
		return &domain.Tag{}, nil
	case domain.KindComments:
		return &domain.Comment{}, nil
	case domain.KindLenses:
		return &domain.Lens{}, nil
	}
	return nil, fmt.Errorf("unknown document kind %q", kind)
}

// UpdatePingbacks stores the extracted pingback set on the owning document
// without touching any other column. Used by the pingback side effect.
func (r *DocumentRepository) UpdatePingbacks(ctx context.Context, ref domain.DocumentRef, set domain.PingbackSet) error {
	doc, err := EmptyDocument(ref.Kind)
	if err != nil {
		return err
	}
	if _, ok := doc.(domain.PingbackCarrier); !ok {
		return nil
	}
	buf, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(doc).
		Where("id = ?", ref.ID).
		Update("pingbacks", string(buf)).Error
}

// UpdateContentHTML rewrites only the denormalized cached HTML for a field.
// Used by the image rehost side effect, which replaces external image
// sources in the cached copy but never touches the immutable revision.
func (r *DocumentRepository) UpdateContentHTML(ctx context.Context, ref domain.DocumentRef, field, html string) error {
	doc, err := EmptyDocument(ref.Kind)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(doc).
		Where("id = ?", ref.ID).
		Update(field+"_html", html).Error
}

// ContentHTML reads the denormalized cached HTML for a field.
func (r *DocumentRepository) ContentHTML(ctx context.Context, ref domain.DocumentRef, field string) (string, error) {
	doc, err := EmptyDocument(ref.Kind)
	if err != nil {
		return "", err
	}
	var html string
	err = r.db.WithContext(ctx).
		Model(doc).
		Where("id = ?", ref.ID).
		Pluck(field+"_html", &html).Error
	return html, err
}
