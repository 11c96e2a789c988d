package group

import (
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	groups := r.Group("/groups")
	groups.GET("", handler.Find)
	groups.GET("/:id", handler.FindByID)
	groups.GET("/:id/members", handler.Members)
	groups.GET("/:id/posts", handler.Posts)
	groups.GET("/posts/:postId/comments", handler.Comments)

	tokenAuthenticationRouter := groups.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)
	tokenAuthenticationRouter.POST("", handler.Create)
	tokenAuthenticationRouter.GET("/mine", handler.Mine)
	tokenAuthenticationRouter.PUT("/:id", handler.Update)
	tokenAuthenticationRouter.DELETE("/:id", handler.Delete)
	tokenAuthenticationRouter.POST("/:id/join", handler.Join)
	tokenAuthenticationRouter.POST("/:id/leave", handler.Leave)
	tokenAuthenticationRouter.POST("/:id/posts", handler.CreatePost)
	tokenAuthenticationRouter.DELETE("/posts/:postId", handler.DeletePost)
	tokenAuthenticationRouter.POST("/posts/:postId/like", handler.LikePost)
	tokenAuthenticationRouter.POST("/posts/:postId/comments", handler.CreateComment)
	tokenAuthenticationRouter.DELETE("/comments/:commentId", handler.DeleteComment)
	tokenAuthenticationRouter.POST("/comments/:commentId/like", handler.LikeComment)
}
