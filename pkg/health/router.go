package health

import "github.com/gin-gonic/gin"

func Routes(r gin.IRouter, handler Handler) {
	r.GET("/health", handler.Health)
}
