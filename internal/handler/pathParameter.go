package handler

import (
	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetObjectIDParameter parses the path parameter as an ObjectID. On failure a bad request is added
// to the context errors and false is returned.
func GetObjectIDParameter(c *gin.Context, parameter string) (primitive.ObjectID, bool) {
	value := c.Param(parameter)
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		_ = c.Error(errdef.NewBadRequest("invalid %s %q", parameter, value))
		return primitive.NilObjectID, false
	}
	return id, true
}
