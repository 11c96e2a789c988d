package chat

import (
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler, socketHandler SocketHandler) {
	r.GET("/socket", authenticationMiddleware.TokenAuthentication, socketHandler.Serve)

	tokenAuthenticationRouter := r.Group("/chat")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)
	tokenAuthenticationRouter.POST("/messages", handler.Send)
	tokenAuthenticationRouter.GET("/conversations", handler.Conversations)
	tokenAuthenticationRouter.GET("/messages/:userId", handler.History)
	tokenAuthenticationRouter.PUT("/messages/read", handler.MarkRead)
	tokenAuthenticationRouter.DELETE("/messages/:id", handler.Delete)
	tokenAuthenticationRouter.GET("/unread-count", handler.UnreadCount)
	tokenAuthenticationRouter.GET("/online", handler.Online)
}
