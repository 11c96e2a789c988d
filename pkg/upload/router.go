package upload

import (
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
)

func Routes(r gin.IRouter, authenticationMiddleware middleware.AuthenticationMiddleware, handler Handler) {
	r.POST("/uploads", authenticationMiddleware.TokenAuthentication, handler.Upload)
}
