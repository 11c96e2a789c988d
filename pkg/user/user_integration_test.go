package user_test

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/pkg/inttest"
	"github.com/gatherly/gatherly/pkg/model"
	"github.com/gatherly/gatherly/pkg/token"
	"github.com/gatherly/gatherly/pkg/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupMongo(t)
	redisClient := inttest.SetupRedis(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	userService := user.NewService(user.NewRepository(db))
	tokenService := token.NewService(logger, token.NewRepository(redisClient), "access-secret", 900, "refresh-secret", 3600)
	authentication := middleware.NewAuthentication(logger, "access-secret", userService)

	client := inttest.SetupHTTPServer(t, func(router gin.IRouter) {
		user.Routes(router, authentication, user.NewHandler(userService, tokenService))
	})

	type authResponse struct {
		User   model.User   `json:"user"`
		Tokens token.Tokens `json:"tokens"`
	}

	var registered authResponse
	client.PostJSON(t, "/auth/register", strings.NewReader(`{
		"name": "Ada Lovelace",
		"email": "Ada@Example.org",
		"password": "analytical"
	}`), &registered)

	t.Run("Register", func(t *testing.T) {
		assert.Equal(t, "ada@example.org", registered.User.Email)
		assert.True(t, registered.User.Active)
		assert.NotEmpty(t, registered.Tokens.AccessToken)
		assert.NotEmpty(t, registered.Tokens.RefreshToken)
	})

	t.Run("RegisterDuplicateEmail", func(t *testing.T) {
		client.Error(t, http.MethodPost, "/auth/register", `{"name": "Ada", "email": "ada@example.org", "password": "analytical"}`, http.StatusBadRequest)
	})

	t.Run("LoginWrongPassword", func(t *testing.T) {
		client.Error(t, http.MethodPost, "/auth/login", `{"email": "ada@example.org", "password": "difference"}`, http.StatusUnauthorized)
	})

	t.Run("Me", func(t *testing.T) {
		var me struct {
			User model.User `json:"user"`
		}
		client.GetJSON(t, "/auth/me", &me, inttest.WithAuthToken(registered.Tokens.AccessToken))

		assert.Equal(t, registered.User.ID, me.User.ID)
		assert.Equal(t, "Ada Lovelace", me.User.Name)
	})

	t.Run("MeUnauthenticated", func(t *testing.T) {
		client.Error(t, http.MethodGet, "/auth/me", "", http.StatusUnauthorized)
	})

	t.Run("UpdateProfileAndSearch", func(t *testing.T) {
		var updated struct {
			User model.User `json:"user"`
		}
		client.PutJSON(t, "/users/me", strings.NewReader(`{"bio": "first programmer", "interests": ["math"]}`), &updated, inttest.WithAuthToken(registered.Tokens.AccessToken))
		assert.Equal(t, "first programmer", updated.User.Bio)

		var found struct {
			Users []model.PublicUser `json:"users"`
			Total int64              `json:"total"`
		}
		client.GetJSON(t, "/users?search=lovelace", &found)
		require.Len(t, found.Users, 1)
		assert.Equal(t, registered.User.ID, found.Users[0].ID)
		assert.Equal(t, []string{"math"}, found.Users[0].Interests)

		var cleared struct {
			User model.User `json:"user"`
		}
		client.PutJSON(t, "/users/me", strings.NewReader(`{"bio": null}`), &cleared, inttest.WithAuthToken(registered.Tokens.AccessToken))
		assert.Empty(t, cleared.User.Bio)
		assert.Equal(t, []string{"math"}, cleared.User.Interests)
	})

	t.Run("RefreshRotatesToken", func(t *testing.T) {
		var login authResponse
		client.PostJSON(t, "/auth/login", strings.NewReader(`{"email": "ada@example.org", "password": "analytical"}`), &login)

		body := `{"refreshToken": "` + login.Tokens.RefreshToken + `"}`
		client.Do(t, http.MethodPost, "/auth/refresh", strings.NewReader(body), http.StatusOK, inttest.WithHeader("Content-Type", "application/json"))

		client.Error(t, http.MethodPost, "/auth/refresh", body, http.StatusUnauthorized)
	})

	t.Run("LogoutRevokesRefreshTokens", func(t *testing.T) {
		var login authResponse
		client.PostJSON(t, "/auth/login", strings.NewReader(`{"email": "ada@example.org", "password": "analytical"}`), &login)

		client.Do(t, http.MethodPost, "/auth/logout", nil, http.StatusOK, inttest.WithAuthToken(login.Tokens.AccessToken))

		client.Error(t, http.MethodPost, "/auth/refresh", `{"refreshToken": "`+login.Tokens.RefreshToken+`"}`, http.StatusUnauthorized)
	})
}
