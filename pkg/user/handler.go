package user

import (
	"context"
	"net/http"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/handler"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/token"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func NewHandler(userService userService, tokenService tokenService) Handler {
	return Handler{
		userService,
		tokenService,
	}
}

type Handler struct {
	userService  userService
	tokenService tokenService
}

type userService interface {
	SignUp(ctx context.Context, name, email, password string) (*model.User, error)
	SignIn(ctx context.Context, email string, password string) (*model.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	Profile(ctx context.Context, id primitive.ObjectID) (*model.PublicUser, error)
	Find(ctx context.Context, search string, page, limit int) ([]model.PublicUser, int64, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update model.UserUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type tokenService interface {
	GetTokens(userID primitive.ObjectID, previousRefreshTokenID string) (*token.Tokens, error)
	ValidateRefreshToken(ctx context.Context, tokenString string) (*token.RefreshTokenData, error)
	SignOut(userID primitive.ObjectID) error
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// SignUp creates an account and signs it in
func (h Handler) SignUp(c *gin.Context) {
	var request SignUpRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.SignUp(c.Request.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tokens, err := h.tokenService.GetTokens(user.ID, "")
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "tokens": tokens})
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h Handler) SignIn(c *gin.Context) {
	var request SignInRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.SignIn(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tokens, err := h.tokenService.GetTokens(user.ID, "")
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user, "tokens": tokens})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h Handler) RefreshToken(c *gin.Context) {
	var request RefreshTokenRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	refreshToken, err := h.tokenService.ValidateRefreshToken(c.Request.Context(), request.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), refreshToken.UserID)
	if err != nil {
		if errdef.IsNotFound(err) {
			err = errdef.NewUnauthorized("user of refresh token not found")
		}
		_ = c.Error(err)
		return
	}

	if !user.Active {
		_ = c.Error(errdef.NewUnauthorized("account is deactivated"))
		return
	}

	tokens, err := h.tokenService.GetTokens(user.ID, refreshToken.ID.String())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "tokens": tokens})
}

// Me returns the authenticated user
func (h Handler) Me(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// SignOut revokes every refresh token of the user. Access tokens stay valid until they expire.
func (h Handler) SignOut(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.tokenService.SignOut(user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "signed out"})
}

func (h Handler) Find(c *gin.Context) {
	page, limit := handler.GetPagination(c)

	users, total, err := h.userService.Find(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": total, "page": page, "limit": limit})
}

func (h Handler) FindByID(c *gin.Context) {
	id, ok := handler.GetObjectIDParameter(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.Profile(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": profile})
}

// UpdateProfileRequest distinguishes absent fields from explicit nulls. A null clears the field.
type UpdateProfileRequest struct {
	Name      optional.Field[string]   `json:"name"`
	Bio       optional.Field[string]   `json:"bio"`
	Location  optional.Field[string]   `json:"location"`
	Avatar    optional.Field[string]   `json:"avatar"`
	Interests optional.Field[[]string] `json:"interests"`
}

func (h Handler) UpdateProfile(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request UpdateProfileRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, model.UserUpdate{
		Name:      request.Name,
		Bio:       request.Bio,
		Location:  request.Location,
		Avatar:    request.Avatar,
		Interests: request.Interests,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=128"`
}

func (h Handler) ChangePassword(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var request ChangePasswordRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	err = h.userService.ChangePassword(c.Request.Context(), user.ID, request.CurrentPassword, request.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password changed"})
}

// Deactivate disables the account of the authenticated user and revokes its refresh tokens.
func (h Handler) Deactivate(c *gin.Context) {
	user, err := handler.GetUserFromContext(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.tokenService.SignOut(user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "account deactivated"})
}
