package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/quillforum/quill-backend/internal/common"
	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/quillforum/quill-backend/internal/repository"
	"github.com/quillforum/quill-backend/internal/service"
	pkgcache "github.com/quillforum/quill-backend/pkg/cache"
	"github.com/quillforum/quill-backend/pkg/ginutil"
)

// RevisionHandler serves read access to revision chains. Every response is
// filtered through the access policy; a revision the viewer may not see is
// indistinguishable from one that does not exist.
type RevisionHandler struct {
	revisions repository.RevisionRepository
	users     repository.UserRepository
	access    *service.AccessPolicy
	cache     pkgcache.Service
}

// NewRevisionHandler creates a new RevisionHandler
func NewRevisionHandler(revisions repository.RevisionRepository, users repository.UserRepository, access *service.AccessPolicy, cache pkgcache.Service) *RevisionHandler {
	return &RevisionHandler{revisions: revisions, users: users, access: access, cache: cache}
}

func (h *RevisionHandler) currentUser(c *gin.Context) (*domain.User, error) {
	return cachedUser(c, h.cache, h.users)
}

// loadChain fetches a revision chain through the chain cache when one is
// configured. The cached chain is unfiltered; access filtering happens per
// viewer after the load.
func (h *RevisionHandler) loadChain(ctx context.Context, ref domain.DocumentRef, fieldName string) ([]*domain.Revision, error) {
	if h.cache != nil {
		if data, err := h.cache.GetChain(ctx, ref, fieldName); err == nil {
			var chain []*domain.Revision
			if json.Unmarshal(data, &chain) == nil {
				return chain, nil
			}
		}
	}
	chain, err := h.revisions.Chain(ctx, ref.ID, fieldName)
	if err != nil {
		return nil, err
	}
	if h.cache != nil {
		_ = h.cache.SetChain(ctx, ref, fieldName, chain)
	}
	return chain, nil
}

// GetRevision returns one revision by id
func (h *RevisionHandler) GetRevision(c *gin.Context) {
	rev, err := h.revisions.FindByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, common.ErrRevisionMissing) {
		common.ErrorResponse(c, 404, "Revision not found", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to fetch revision", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}

	if !h.access.CanView(c.Request.Context(), user, rev) {
		common.ErrorResponse(c, 404, "Revision not found", common.ErrRevisionMissing)
		return
	}

	common.SuccessResponse(c, rev, nil)
}

// ListRevisions returns the viewable revision chain of one document field,
// oldest first, paginated.
func (h *RevisionHandler) ListRevisions(c *gin.Context) {
	kind := domain.DocumentKind(c.Param("kind"))
	if !domain.ValidKind(kind) {
		common.ErrorResponse(c, 400, "Unknown document kind", common.ErrInvalidInput)
		return
	}
	documentID := c.Param("id")

	fieldName := c.Query("field")
	if fieldName == "" {
		fieldName = domain.FieldContents
		if kind == domain.KindTags {
			fieldName = domain.FieldDescription
		}
	}

	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ref := domain.DocumentRef{Kind: kind, ID: documentID}
	chain, err := h.loadChain(c.Request.Context(), ref, fieldName)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to fetch revisions", err)
		return
	}

	user, err := h.currentUser(c)
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to resolve user", err)
		return
	}

	visible := h.access.FilterViewable(c.Request.Context(), user, chain)

	total := int64(len(visible))
	start := (page - 1) * limit
	if start > len(visible) {
		start = len(visible)
	}
	end := start + limit
	if end > len(visible) {
		end = len(visible)
	}

	common.SuccessResponse(c, visible[start:end], &common.Meta{
		DocumentID: documentID,
		FieldName:  fieldName,
		Page:       page,
		Limit:      limit,
		Total:      total,
	})
}
