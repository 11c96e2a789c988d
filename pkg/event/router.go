package event

import (
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	events := r.Group("/events")
	events.GET("/:id/attendees", handler.Attendees)

	optionalAuthenticationRouter := events.Group("")
	optionalAuthenticationRouter.Use(authenticationMiddleware.OptionalTokenAuthentication)
	optionalAuthenticationRouter.GET("", handler.Find)
	optionalAuthenticationRouter.GET("/:id", handler.FindByID)

	r.GET("/users/:id/events", authenticationMiddleware.OptionalTokenAuthentication, handler.FindByUser)

	tokenAuthenticationRouter := events.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)
	tokenAuthenticationRouter.POST("", handler.Create)
	tokenAuthenticationRouter.PUT("/:id", handler.Update)
	tokenAuthenticationRouter.DELETE("/:id", handler.Delete)
	tokenAuthenticationRouter.POST("/:id/attend", handler.Attend)
	tokenAuthenticationRouter.POST("/:id/save", handler.Save)
}
