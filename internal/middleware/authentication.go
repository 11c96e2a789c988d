package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/token/helper"
	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewAuthentication(logger *slog.Logger, secretKey string, userService userService) AuthenticationMiddleware {
	return AuthenticationMiddleware{
		logger:      logger,
		secretKey:   []byte(secretKey),
		userService: userService,
	}
}

type userService interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
}

type AuthenticationMiddleware struct {
	logger      *slog.Logger
	secretKey   []byte
	userService userService
}

// TokenAuthentication rejects requests without a valid access token of an active user.
func (m AuthenticationMiddleware) TokenAuthentication(c *gin.Context) {
	user, err := m.authenticate(c)
	if err != nil {
		m.logger.InfoContext(c.Request.Context(), "Authentication failed", "error", err)
		_ = c.Error(err)
		c.Abort()
		return
	}

	setUser(c, user)
	c.Next()
}

// OptionalTokenAuthentication sets the user if the request carries a valid token and otherwise
// lets the request through anonymously.
func (m AuthenticationMiddleware) OptionalTokenAuthentication(c *gin.Context) {
	user, err := m.authenticate(c)
	if err == nil {
		setUser(c, user)
	}
	c.Next()
}

func setUser(c *gin.Context, user *model.User) {
	c.Set("user", user)
	ctx := model.NewContextWithUser(c.Request.Context(), user)
	c.Request = c.Request.WithContext(ctx)
}

func (m AuthenticationMiddleware) authenticate(c *gin.Context) (*model.User, error) {
	userID, err := parseRequest(c.Request, m.secretKey)
	if err != nil {
		return nil, errdef.NewUnauthorized("token not valid: %v", err)
	}

	user, err := m.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewUnauthorized("user of token not found")
		}
		return nil, err
	}

	if !user.Active {
		return nil, errdef.NewUnauthorized("account is deactivated")
	}

	return user, nil
}

// parseRequest accepts the token as bearer token or as token query parameter. The latter is used
// by websocket clients which can't set headers.
func parseRequest(request *http.Request, key []byte) (primitive.ObjectID, error) {
	token, err := jwt.ParseRequest(
		request,
		jwt.WithKey(jwa.HS256, key),
		jwt.WithHeaderKey("Authorization"),
		jwt.WithFormKey("token"),
	)
	if err != nil {
		return primitive.NilObjectID, err
	}

	return helper.UserIDFromToken(token)
}
