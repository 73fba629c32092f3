package repository

import (
	"context"
	"errors"

	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"gorm.io/gorm"
)

// UserRepository user data access
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByNicknames(ctx context.Context, nicknames []string) ([]*domain.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByNicknames(ctx context.Context, nicknames []string) ([]*domain.User, error) {
	if len(nicknames) == 0 {
		return nil, nil
	}
	var users []*domain.User
	err := r.db.WithContext(ctx).Where("nickname IN ?", nicknames).Find(&users).Error
	return users, err
}
