package upload

import (
	"context"
	"io"
	"net/http"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(service uploadService) Handler {
	return Handler{service}
}

type Handler struct {
	service uploadService
}

type uploadService interface {
	Save(ctx context.Context, userID primitive.ObjectID, file io.ReadSeeker, size int64) (string, error)
}

func (h Handler) Upload(c *gin.Context) {
	// swagger:route POST /uploads upload
	//
	// Upload an image
	//
	// Upload an image as multipart form field "file" and return the URL it is served from
	//
	// Security:
	//	oauth2:
	//
	// Responses:
	//	201: Upload
	//	400: Error
	//	401: Error
	//	415: Error
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("multipart field \"file\" is required: %v", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer file.Close()

	url, err := h.service.Save(c.Request.Context(), user.ID, file, header.Size)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "url": url})
}
