package handler

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/middleware"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/quillforum/quill-backend/internal/service"
	pkgcache "github.com/quillforum/quill-backend/pkg/cache"
)

// ContentsInput is the editor payload carried by create and update requests.
type ContentsInput struct {
	Type string `json:"type" binding:"required"`
	Data string `json:"data" binding:"required"`
}

func (in *ContentsInput) payload(updateType, commitMessage, baseRevisionID string) *service.EditPayload {
	if in == nil {
		return nil
	}
	return &service.EditPayload{
		OriginalContents: domain.ContentPayload{Type: in.Type, Data: in.Data},
		UpdateType:       domain.UpdateType(updateType),
		CommitMessage:    commitMessage,
		BaseRevisionID:   baseRevisionID,
	}
}

// MutationResult pairs the saved document with the revision the edit created.
// Revision is null when the request carried no contents.
type MutationResult struct {
	Document interface{}      `json:"document"`
	Revision *domain.Revision `json:"revision,omitempty"`
}

// DocumentHandler handles create and update requests for every editable
// document kind.
type DocumentHandler struct {
	pipeline *service.MutationPipeline
	docs     *repository.DocumentRepository
	users    repository.UserRepository
	cache    pkgcache.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(pipeline *service.MutationPipeline, docs *repository.DocumentRepository, users repository.UserRepository, cache pkgcache.Service) *DocumentHandler {
	return &DocumentHandler{pipeline: pipeline, docs: docs, users: users, cache: cache}
}

// currentUser resolves the authenticated user set by the JWT middleware.
// Anonymous requests yield nil without error.
func (h *DocumentHandler) currentUser(c *gin.Context) (*domain.User, error) {
	return cachedUser(c, h.cache, h.users)
}

// cachedUser resolves the request's user id through the user cache when one
// is configured, falling back to the repository and populating the cache on
// a miss.
func cachedUser(c *gin.Context, cache pkgcache.Service, users repository.UserRepository) (*domain.User, error) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return nil, nil
	}
	ctx := c.Request.Context()
	if cache != nil {
		if data, err := cache.GetUser(ctx, userID); err == nil {
			var user domain.User
			if json.Unmarshal(data, &user) == nil {
				return &user, nil
			}
		}
	}
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cache != nil && user != nil {
		_ = cache.SetUser(ctx, userID, user)
	}
	return user, nil
}

// writeMutationError maps pipeline errors to HTTP statuses.
func writeMutationError(c *gin.Context, err error) {
	var convErr *common.ConversionError
	var valErr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		common.ErrorResponse(c, 401, "Authentication required", err)
	case errors.Is(err, common.ErrForbidden):
		common.ErrorResponse(c, 403, "Not allowed to edit this document", err)
	case errors.Is(err, common.ErrDocumentMissing), errors.Is(err, common.ErrNotFound):
		common.ErrorResponse(c, 404, "Document not found", err)
	case errors.Is(err, common.ErrConflict):
		common.ErrorResponse(c, 409, "Edit is based on a stale revision", err)
	case errors.Is(err, common.ErrInvalidUpdateType),
		errors.Is(err, common.ErrInvalidInput),
		errors.As(err, &convErr),
		errors.As(err, &valErr):
		common.ErrorResponse(c, 422, "Mutation rejected", err)
	default:
		common.ErrorResponse(c, 500, "Failed to save document", err)
	}
}

func (h *DocumentHandler) invalidate(c *gin.Context, ref domain.DocumentRef, field string) {
	if h.cache == nil {
		return
	}
	ctx := c.Request.Context()
	_ = h.cache.InvalidateDocument(ctx, ref)
	_ = h.cache.InvalidateChain(ctx, ref, field)
}

func (h *DocumentHandler) observeCreated(rev *domain.Revision) {
	if rev != nil {
		middleware.ObserveRevisionCreated(string(rev.CollectionName), string(rev.UpdateType))
	}
}

// canEdit decides whether user may modify doc: the author, an admin, or a
// collaborator granted edit level on a shared draft.
func canEdit(user *domain.User, doc domain.EditableDocument) bool {
	if user == nil {
		return false
	}
	if user.ID == doc.AuthorID() || user.IsAdmin() {
		return true
	}
	if sharable, ok := doc.(domain.Sharable); ok {
		return sharable.CollabAccessFor(user).Can(domain.AccessEdit)
	}
	return false
}

// ========================================
// Posts
// ========================================

// CreatePostRequest is the body of POST /posts
type CreatePostRequest struct {
	Title         string              `json:"title" binding:"required"`
	Draft         bool                `json:"draft"`
	Debate        bool                `json:"debate"`
	Unlisted      bool                `json:"unlisted"`
	ShareWith     []domain.ShareEntry `json:"share_with"`
	Contents      *ContentsInput      `json:"contents"`
	CommitMessage string              `json:"commit_message"`
}

// UpdatePostRequest is the body of PATCH /posts/:id. Pointer fields are
// applied only when present.
type UpdatePostRequest struct {
	Title          *string              `json:"title"`
	Draft          *bool                `json:"draft"`
	Unlisted       *bool                `json:"unlisted"`
	ShareWith      *[]domain.ShareEntry `json:"share_with"`
	Contents       *ContentsInput       `json:"contents"`
	UpdateType     string               `json:"update_type"`
	CommitMessage  string               `json:"commit_message"`
	BaseRevisionID string               `json:"base_revision_id"`
}

// CreatePost creates a post, optionally with its first contents revision
func (h *DocumentHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}
	if user == nil {
		common.ErrorResponse(c, 401, "Authentication required", common.ErrUnauthenticated)
		return
	}

	post := &domain.Post{
		UserID:    user.ID,
		Title:     req.Title,
		Draft:     req.Draft,
		Debate:    req.Debate,
		Unlisted:  req.Unlisted,
		ShareWith: req.ShareWith,
	}

	rev, err := h.pipeline.CreateDocument(c.Request.Context(), user, post, domain.FieldContents, req.Contents.payload("", req.CommitMessage, ""))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	common.CreatedResponse(c, MutationResult{Document: post, Revision: rev})
}

// UpdatePost edits a post and appends a revision when contents are supplied
func (h *DocumentHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}

	ref := domain.DocumentRef{Kind: domain.KindPosts, ID: c.Param("id")}
	doc, err := h.docs.Find(c.Request.Context(), ref)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	post := doc.(*domain.Post)

	if !canEdit(user, post) {
		common.ErrorResponse(c, 403, "Not allowed to edit this post", common.ErrForbidden)
		return
	}

	wasDraft := post.Draft
	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Draft != nil {
		post.Draft = *req.Draft
	}
	if req.Unlisted != nil {
		post.Unlisted = *req.Unlisted
	}
	if req.ShareWith != nil {
		post.ShareWith = *req.ShareWith
	}

	rev, err := h.pipeline.UpdateDocument(c.Request.Context(), user, post, wasDraft, domain.FieldContents, req.Contents.payload(req.UpdateType, req.CommitMessage, req.BaseRevisionID))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	h.invalidate(c, ref, domain.FieldContents)
	common.SuccessResponse(c, MutationResult{Document: post, Revision: rev}, nil)
}

// ========================================
// Comments
// ========================================

// CreateCommentRequest is the body of POST /comments
type CreateCommentRequest struct {
	PostID         string         `json:"post_id" binding:"required"`
	DebateResponse bool           `json:"debate_response"`
	Contents       *ContentsInput `json:"contents" binding:"required"`
}

// UpdateCommentRequest is the body of PATCH /comments/:id
type UpdateCommentRequest struct {
	Contents       *ContentsInput `json:"contents" binding:"required"`
	UpdateType     string         `json:"update_type"`
	CommitMessage  string         `json:"commit_message"`
	BaseRevisionID string         `json:"base_revision_id"`
}

// CreateComment creates a comment with its first contents revision
func (h *DocumentHandler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}
	if user == nil {
		common.ErrorResponse(c, 401, "Authentication required", common.ErrUnauthenticated)
		return
	}

	// The parent post must exist and be readable by the commenter.
	parentRef := domain.DocumentRef{Kind: domain.KindPosts, ID: req.PostID}
	parent, err := h.docs.Find(c.Request.Context(), parentRef)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	if !parent.CanRead(user) {
		common.ErrorResponse(c, 403, "Not allowed to comment on this post", common.ErrForbidden)
		return
	}

	comment := &domain.Comment{
		PostID:         req.PostID,
		UserID:         user.ID,
		DebateResponse: req.DebateResponse,
	}
	if err := comment.Validate(); err != nil {
		common.ErrorResponse(c, 422, "Invalid comment", err)
		return
	}

	rev, err := h.pipeline.CreateDocument(c.Request.Context(), user, comment, domain.FieldContents, req.Contents.payload("", "", ""))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	common.CreatedResponse(c, MutationResult{Document: comment, Revision: rev})
}

// UpdateComment edits a comment's contents
func (h *DocumentHandler) UpdateComment(c *gin.Context) {
	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}

	ref := domain.DocumentRef{Kind: domain.KindComments, ID: c.Param("id")}
	doc, err := h.docs.Find(c.Request.Context(), ref)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	comment := doc.(*domain.Comment)

	if !canEdit(user, comment) {
		common.ErrorResponse(c, 403, "Not allowed to edit this comment", common.ErrForbidden)
		return
	}

	rev, err := h.pipeline.UpdateDocument(c.Request.Context(), user, comment, false, domain.FieldContents, req.Contents.payload(req.UpdateType, req.CommitMessage, req.BaseRevisionID))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	h.invalidate(c, ref, domain.FieldContents)
	common.SuccessResponse(c, MutationResult{Document: comment, Revision: rev}, nil)
}

// ========================================
// Tags (wiki pages)
// ========================================

// CreateTagRequest is the body of POST /tags
type CreateTagRequest struct {
	Name        string         `json:"name" binding:"required"`
	Slug        string         `json:"slug" binding:"required"`
	Description *ContentsInput `json:"description"`
}

// UpdateTagDescriptionRequest is the body of PATCH /tags/:id/description
type UpdateTagDescriptionRequest struct {
	Description    *ContentsInput `json:"description" binding:"required"`
	UpdateType     string         `json:"update_type"`
	CommitMessage  string         `json:"commit_message"`
	BaseRevisionID string         `json:"base_revision_id"`
}

// CreateTag creates a wiki page, optionally with a first description revision
func (h *DocumentHandler) CreateTag(c *gin.Context) {
	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}
	if user == nil {
		common.ErrorResponse(c, 401, "Authentication required", common.ErrUnauthenticated)
		return
	}

	tag := &domain.Tag{
		UserID: user.ID,
		Name:   req.Name,
		Slug:   req.Slug,
	}

	rev, err := h.pipeline.CreateDocument(c.Request.Context(), user, tag, domain.FieldDescription, req.Description.payload("", "", ""))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	common.CreatedResponse(c, MutationResult{Document: tag, Revision: rev})
}

// UpdateTagDescription appends a description revision to a wiki page. Any
// authenticated user may edit a wiki page that is not deleted.
func (h *DocumentHandler) UpdateTagDescription(c *gin.Context) {
	var req UpdateTagDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}
	if user == nil {
		common.ErrorResponse(c, 401, "Authentication required", common.ErrUnauthenticated)
		return
	}

	ref := domain.DocumentRef{Kind: domain.KindTags, ID: c.Param("id")}
	doc, err := h.docs.Find(c.Request.Context(), ref)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	tag := doc.(*domain.Tag)
	if tag.Deleted {
		common.ErrorResponse(c, 404, "Tag not found", common.ErrDocumentMissing)
		return
	}

	rev, err := h.pipeline.UpdateDocument(c.Request.Context(), user, tag, false, domain.FieldDescription, req.Description.payload(req.UpdateType, req.CommitMessage, req.BaseRevisionID))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	h.invalidate(c, ref, domain.FieldDescription)
	common.SuccessResponse(c, MutationResult{Document: tag, Revision: rev}, nil)
}

// ========================================
// Lenses
// ========================================

// CreateLensRequest is the body of POST /lenses
type CreateLensRequest struct {
	TagID    string         `json:"tag_id" binding:"required"`
	Title    string         `json:"title" binding:"required"`
	Draft    bool           `json:"draft"`
	Contents *ContentsInput `json:"contents"`
}

// UpdateLensRequest is the body of PATCH /lenses/:id
type UpdateLensRequest struct {
	Title          *string        `json:"title"`
	Draft          *bool          `json:"draft"`
	Contents       *ContentsInput `json:"contents"`
	UpdateType     string         `json:"update_type"`
	CommitMessage  string         `json:"commit_message"`
	BaseRevisionID string         `json:"base_revision_id"`
}

// CreateLens creates a lens on a wiki page
func (h *DocumentHandler) CreateLens(c *gin.Context) {
	var req CreateLensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}
	if user == nil {
		common.ErrorResponse(c, 401, "Authentication required", common.ErrUnauthenticated)
		return
	}

	// The owning wiki page must exist.
	if _, err := h.docs.Find(c.Request.Context(), domain.DocumentRef{Kind: domain.KindTags, ID: req.TagID}); err != nil {
		writeMutationError(c, err)
		return
	}

	lens := &domain.Lens{
		TagID:  req.TagID,
		UserID: user.ID,
		Title:  req.Title,
		Draft:  req.Draft,
	}

	rev, err := h.pipeline.CreateDocument(c.Request.Context(), user, lens, domain.FieldContents, req.Contents.payload("", "", ""))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	common.CreatedResponse(c, MutationResult{Document: lens, Revision: rev})
}

// UpdateLens edits a lens and appends a revision when contents are supplied
func (h *DocumentHandler) UpdateLens(c *gin.Context) {
	var req UpdateLensRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}

	ref := domain.DocumentRef{Kind: domain.KindLenses, ID: c.Param("id")}
	doc, err := h.docs.Find(c.Request.Context(), ref)
	if err != nil {
		writeMutationError(c, err)
		return
	}
	lens := doc.(*domain.Lens)

	if !canEdit(user, lens) {
		common.ErrorResponse(c, 403, "Not allowed to edit this lens", common.ErrForbidden)
		return
	}

	wasDraft := lens.Draft
	if req.Title != nil {
		lens.Title = *req.Title
	}
	if req.Draft != nil {
		lens.Draft = *req.Draft
	}

	rev, err := h.pipeline.UpdateDocument(c.Request.Context(), user, lens, wasDraft, domain.FieldContents, req.Contents.payload(req.UpdateType, req.CommitMessage, req.BaseRevisionID))
	if err != nil {
		writeMutationError(c, err)
		return
	}

	h.observeCreated(rev)
	h.invalidate(c, ref, domain.FieldContents)
	common.SuccessResponse(c, MutationResult{Document: lens, Revision: rev}, nil)
}
