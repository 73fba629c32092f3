package repository

import (
	"context"
	"errors"

	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// RevisionRepository is the append-only revision store. Create and
// BackfillDocumentID are used only by the mutation pipeline and the offline
// repair tool; no update or delete is exposed in the normal path.
type RevisionRepository interface {
	Create(ctx context.Context, revision *domain.Revision) error
	FindByID(ctx context.Context, id string) (*domain.Revision, error)
	// Latest returns the most recent revision for a (documentID, fieldName)
	// chain, nil if the chain is empty.
	Latest(ctx context.Context, documentID, fieldName string) (*domain.Revision, error)
	// Chain returns all revisions for (documentID, fieldName) ordered by
	// creation time, oldest first.
	Chain(ctx context.Context, documentID, fieldName string) ([]*domain.Revision, error)
	// BackfillDocumentID links a revision created during a document-create
	// flow to the document id assigned afterwards.
	BackfillDocumentID(ctx context.Context, revisionID, documentID string) error
	// CountForDocument is used by the offline repair tool to skip documents
	// that already own a chain.
	CountForDocument(ctx context.Context, documentID, fieldName string) (int64, error)
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(ctx context.Context, revision *domain.Revision) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r *revisionRepository) FindByID(ctx context.Context, id string) (*domain.Revision, error) {
	var rev domain.Revision
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrRevisionMissing
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *revisionRepository) Latest(ctx context.Context, documentID, fieldName string) (*domain.Revision, error) {
	var rev domain.Revision
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND field_name = ?", documentID, fieldName).
		Order("edited_at DESC").
		First(&rev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *revisionRepository) Chain(ctx context.Context, documentID, fieldName string) ([]*domain.Revision, error) {
	var revisions []*domain.Revision
	err := r.db.WithContext(ctx).
		Where("document_id = ? AND field_name = ?", documentID, fieldName).
		Order("edited_at ASC").
		Find(&revisions).Error
	return revisions, err
}

func (r *revisionRepository) BackfillDocumentID(ctx context.Context, revisionID, documentID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Where("id = ? AND document_id = ''", revisionID).
		Update("document_id", documentID).Error
}

func (r *revisionRepository) CountForDocument(ctx context.Context, documentID, fieldName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Revision{}).
		Where("document_id = ? AND field_name = ?", documentID, fieldName).
		Count(&count).Error
	return count, err
}
