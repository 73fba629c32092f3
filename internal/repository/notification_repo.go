package repository

import (
	"context"

	"github.com/quillforum/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// NotificationRepository notification data access, used by the mention
// side effect.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	// MentionedUserIDs returns the set of users already notified about a
	// mention originating from the given document, for duplicate
	// suppression across edits.
	MentionedUserIDs(ctx context.Context, ref domain.DocumentRef) (map[string]bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) MentionedUserIDs(ctx context.Context, ref domain.DocumentRef) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("type = ? AND document_kind = ? AND document_id = ?",
			domain.NotificationTypeMention, ref.Kind, ref.ID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}
