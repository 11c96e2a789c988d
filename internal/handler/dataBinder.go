package handler

import (
	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gin-gonic/gin"
)

func DataBinder(c *gin.Context, req any) error {
	if c.ContentType() != "application/json" {
		return errdef.NewUnsupportedMediaType("%s only accepts content of type application/json", c.FullPath())
	}

	if err := c.ShouldBindJSON(req); err != nil {
		return errdef.NewBadRequest("Error binding data: %v", err)
	}

	return nil
}
