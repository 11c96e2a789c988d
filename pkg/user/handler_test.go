package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/optional"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestHandler_SignIn(t *testing.T) {
	userService := &mockUserService{}
	user := &model.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Password: "hash", Active: true}
	userService.
		On("SignIn", "ada@example.com", "secret1").
		Return(user, nil)
	tokenService := &mockTokenService{}
	tokens := &token.Tokens{AccessToken: "accessToken", TokenType: "bearer", RefreshToken: "refreshToken", ExpiresIn: 312}
	tokenService.
		On("GetTokens", user.ID, "").
		Return(tokens, nil)
	handler := NewHandler(userService, tokenService)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = newPost(t, "/auth/login", &SignInRequest{Email: "ada@example.com", Password: "secret1"})

	handler.SignIn(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "hash")
	var body struct {
		Success bool         `json:"success"`
		Tokens  token.Tokens `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, *tokens, body.Tokens)
	tokenService.AssertExpectations(t)
	userService.AssertExpectations(t)
}

func TestHandler_SignIn_InvalidCredentials(t *testing.T) {
	userService := &mockUserService{}
	userService.
		On("SignIn", "ada@example.com", "wrong").
		Return(nil, errdef.NewUnauthorized("invalid email and password combination"))
	handler := NewHandler(userService, &mockTokenService{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = newPost(t, "/auth/login", &SignInRequest{Email: "ada@example.com", Password: "wrong"})

	handler.SignIn(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsUnauthorized(c.Errors.Last()))
}

func TestHandler_SignUp_BadRequest(t *testing.T) {
	handler := NewHandler(&mockUserService{}, &mockTokenService{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = newPost(t, "/auth/register", map[string]string{"email": "not-an-email"})

	handler.SignUp(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
}

func TestHandler_RefreshToken(t *testing.T) {
	userService := &mockUserService{}
	user := &model.User{ID: primitive.NewObjectID(), Active: true}
	userService.
		On("FindByID", user.ID).
		Return(user, nil)
	tokenService := &mockTokenService{}
	id := uuid.New()
	refreshTokenData := &token.RefreshTokenData{
		SignedToken: "signed-token",
		ID:          id,
		UserID:      user.ID,
	}
	tokenService.
		On("ValidateRefreshToken", "token").
		Return(refreshTokenData, nil)
	tokens := &token.Tokens{
		AccessToken:  "accessToken",
		TokenType:    "bearer",
		RefreshToken: "refreshToken",
		ExpiresIn:    312,
	}
	tokenService.
		On("GetTokens", user.ID, id.String()).
		Return(tokens, nil)
	handler := NewHandler(userService, tokenService)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = newPost(t, "/auth/refresh", &RefreshTokenRequest{RefreshToken: "token"})

	handler.RefreshToken(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusOK, recorder.Code)
	tokenService.AssertExpectations(t)
	userService.AssertExpectations(t)
}

func TestHandler_RefreshToken_DeactivatedUser(t *testing.T) {
	userService := &mockUserService{}
	user := &model.User{ID: primitive.NewObjectID(), Active: false}
	userService.
		On("FindByID", user.ID).
		Return(user, nil)
	tokenService := &mockTokenService{}
	tokenService.
		On("ValidateRefreshToken", "token").
		Return(&token.RefreshTokenData{ID: uuid.New(), UserID: user.ID}, nil)
	handler := NewHandler(userService, tokenService)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = newPost(t, "/auth/refresh", &RefreshTokenRequest{RefreshToken: "token"})

	handler.RefreshToken(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsUnauthorized(c.Errors.Last()))
	tokenService.AssertNotCalled(t, "GetTokens", mock.Anything, mock.Anything)
}

func TestHandler_SignOut(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID()}
	tokenService := &mockTokenService{}
	tokenService.
		On("SignOut", user.ID).
		Return(nil)
	handler := NewHandler(&mockUserService{}, tokenService)

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set("user", user)
	c.Request = newPost(t, "/auth/logout", nil)

	handler.SignOut(c)

	require.Empty(t, c.Errors)
	assert.JSONEq(t, `{"success": true, "message": "signed out"}`, recorder.Body.String())
	tokenService.AssertExpectations(t)
}

func TestHandler_FindByID_InvalidID(t *testing.T) {
	handler := NewHandler(&mockUserService{}, &mockTokenService{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.AddParam("id", "123")

	handler.FindByID(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsBadRequest(c.Errors.Last()))
}

func TestHandler_UpdateProfile(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID(), Name: "Ada"}
	bio := "mathematician"
	userService := &mockUserService{}
	userService.
		On("UpdateProfile", user.ID, model.UserUpdate{Bio: optional.Of(bio), Avatar: optional.Null[string]()}).
		Return(&model.User{ID: user.ID, Name: "Ada", Bio: bio}, nil)
	handler := NewHandler(userService, &mockTokenService{})

	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Set("user", user)
	c.Request = newPost(t, "/users/me", map[string]any{"bio": bio, "avatar": nil})

	handler.UpdateProfile(c)

	require.Empty(t, c.Errors)
	assert.Contains(t, recorder.Body.String(), `"bio":"mathematician"`)
	userService.AssertExpectations(t)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) SignUp(ctx context.Context, name, email, password string) (*model.User, error) {
	called := m.Called(name, email, password)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) SignIn(ctx context.Context, email string, password string) (*model.User, error) {
	called := m.Called(email, password)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) FindByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	called := m.Called(id)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) Profile(ctx context.Context, id primitive.ObjectID) (*model.PublicUser, error) {
	called := m.Called(id)
	user, _ := called.Get(0).(*model.PublicUser)
	return user, called.Error(1)
}

func (m *mockUserService) Find(ctx context.Context, search string, page, limit int) ([]model.PublicUser, int64, error) {
	panic("implement me")
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, update model.UserUpdate) (*model.User, error) {
	called := m.Called(id, update)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}

func (m *mockUserService) ChangePassword(ctx context.Context, id primitive.ObjectID, currentPassword, newPassword string) error {
	panic("implement me")
}

func (m *mockUserService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	panic("implement me")
}

type mockTokenService struct{ mock.Mock }

func (m *mockTokenService) GetTokens(userID primitive.ObjectID, previousRefreshTokenID string) (*token.Tokens, error) {
	called := m.Called(userID, previousRefreshTokenID)
	tokens, _ := called.Get(0).(*token.Tokens)
	return tokens, called.Error(1)
}

func (m *mockTokenService) ValidateRefreshToken(ctx context.Context, tokenString string) (*token.RefreshTokenData, error) {
	called := m.Called(tokenString)
	data, _ := called.Get(0).(*token.RefreshTokenData)
	return data, called.Error(1)
}

func (m *mockTokenService) SignOut(userID primitive.ObjectID) error {
	called := m.Called(userID)
	return called.Error(0)
}

func newPost(t *testing.T, path string, jsonBody any) *http.Request {
	body, err := json.Marshal(jsonBody)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	return req
}
