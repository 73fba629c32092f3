package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/quillforum/quill-backend/internal/handler"
	"github.com/quillforum/quill-backend/internal/middleware"
	"github.com/quillforum/quill-backend/pkg/jwt"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	documentHandler *handler.DocumentHandler,
	revisionHandler *handler.RevisionHandler,
	jwtManager *jwt.Manager,
) {
	api := router.Group("/api/v1")

	// Read endpoints: anonymous allowed, access policy filters per revision
	read := api.Group("", middleware.OptionalJWTAuth(jwtManager))
	{
		read.GET("/revisions/:id", revisionHandler.GetRevision)
		read.GET("/documents/:kind/:id/revisions", revisionHandler.ListRevisions)
	}

	// Mutation endpoints require authentication
	write := api.Group("", middleware.JWTAuth(jwtManager))
	{
		write.POST("/posts", documentHandler.CreatePost)
		write.PATCH("/posts/:id", documentHandler.UpdatePost)

		write.POST("/comments", documentHandler.CreateComment)
		write.PATCH("/comments/:id", documentHandler.UpdateComment)

		write.POST("/tags", documentHandler.CreateTag)
		write.PATCH("/tags/:id/description", documentHandler.UpdateTagDescription)

		write.POST("/lenses", documentHandler.CreateLens)
		write.PATCH("/lenses/:id", documentHandler.UpdateLens)
	}
}
