package recommendation

import (
	"context"
	"net/http"

	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(service recommendationService) Handler {
	return Handler{service}
}

type Handler struct {
	service recommendationService
}

type recommendationService interface {
	Recommend(ctx context.Context, userID primitive.ObjectID) ([]Recommendation, error)
}

// Recommend returns users the authenticated user might want to connect with
func (h Handler) Recommend(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	recommendations, err := h.service.Recommend(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recommendations": recommendations})
}
