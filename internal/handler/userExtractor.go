package handler

import (
	"errors"

	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gin-gonic/gin"
)

// GetUserFromContext returns the user set by the authentication middleware.
func GetUserFromContext(c *gin.Context) (*model.User, error) {
	userData, exists := c.Get("user")

	if !exists {
		return nil, errors.New("user not found on context")
	}

	user, ok := userData.(*model.User)
	if !ok {
		return nil, errors.New("failed to parse user data")
	}
	return user, nil
}

// GetOptionalUserFromContext returns nil for anonymous requests.
func GetOptionalUserFromContext(c *gin.Context) *model.User {
	user, err := GetUserFromContext(c)
	if err != nil {
		return nil
	}
	return user
}
