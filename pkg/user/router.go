package user

import (
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	auth := r.Group("/auth")
	auth.POST("/register", handler.SignUp)
	auth.POST("/login", handler.SignIn)
	auth.POST("/refresh", handler.RefreshToken)
	auth.GET("/me", authenticationMiddleware.TokenAuthentication, handler.Me)
	auth.POST("/logout", authenticationMiddleware.TokenAuthentication, handler.SignOut)

	users := r.Group("/users")
	users.GET("", handler.Find)
	users.GET("/:id", handler.FindByID)

	tokenAuthenticationRouter := users.Group("")
	tokenAuthenticationRouter.Use(authenticationMiddleware.TokenAuthentication)
	tokenAuthenticationRouter.PUT("/me", handler.UpdateProfile)
	tokenAuthenticationRouter.PUT("/me/password", handler.ChangePassword)
	tokenAuthenticationRouter.DELETE("/me", handler.Deactivate)
}
