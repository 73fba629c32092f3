package service

import (
	"context"

	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
)

// DebateCommentPreflight validates, before a debate post is committed, that
// its companion first comment would itself be creatable. A debate post
// without a valid companion comment is rejected whole; nothing is written.
type DebateCommentPreflight struct{}

func (DebateCommentPreflight) Name() string { return "debate_companion_comment" }

func (DebateCommentPreflight) ValidateCreate(_ context.Context, user *domain.User, doc domain.EditableDocument, _ *RenderedContent) error {
	post, ok := doc.(*domain.Post)
	if !ok || !post.Debate {
		return nil
	}

	userID := ""
	if user != nil {
		userID = user.ID
	}
	companion := &domain.Comment{UserID: userID, DebateResponse: true}
	if err := companion.Validate(); err != nil {
		return &common.ValidationError{Check: "debate_companion_comment", Reason: err.Error()}
	}
	return nil
}
