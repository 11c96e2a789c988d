package upload_test

import (
	"bytes"
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/pkg/inttest"
	"github.com/gatherly/gatherly/pkg/token/helper"
	"github.com/gatherly/gatherly/pkg/upload"
	"github.com/gatherly/gatherly/pkg/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupMongo(t)
	minioClient := inttest.SetupMinio(t, "uploads")
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	userService := user.NewService(user.NewRepository(db))
	authentication := middleware.NewAuthentication(logger, "secret", userService)
	baseURL := "http://" + minioClient.Endpoint + "/uploads/"
	uploadService := upload.NewService(minioClient.Client, minioClient.Bucket, 1024, func(key string) string {
		return baseURL + key
	})

	client := inttest.SetupHTTPServer(t, func(router gin.IRouter) {
		upload.Routes(router, authentication, upload.NewHandler(uploadService))
	})

	u, err := userService.SignUp(context.Background(), "Uploader", "uploader@example.org", "secret123")
	require.NoError(t, err)
	accessToken, err := helper.GenerateAccessToken(u.ID, "secret", 3600)
	require.NoError(t, err)

	form := func(t *testing.T, content []byte) (*multipart.Writer, *bytes.Buffer) {
		var b bytes.Buffer
		w := multipart.NewWriter(&b)
		part, err := w.CreateFormFile("file", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return w, &b
	}

	t.Run("Upload", func(t *testing.T) {
		png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 32)...)
		w, b := form(t, png)

		var uploaded struct {
			URL string `json:"url"`
		}
		client.PostForm(t, "/uploads", w, b, &uploaded, inttest.WithAuthToken(accessToken))

		require.True(t, strings.HasPrefix(uploaded.URL, baseURL+u.ID.Hex()+"/"))
		assert.True(t, strings.HasSuffix(uploaded.URL, ".png"))
		key := strings.TrimPrefix(uploaded.URL, baseURL)
		assert.Equal(t, png, minioClient.GetObject(t, key))
	})

	t.Run("RejectNonImage", func(t *testing.T) {
		w, b := form(t, []byte("plain old text"))

		body := client.Do(t, http.MethodPost, "/uploads", b, http.StatusUnsupportedMediaType,
			inttest.WithAuthToken(accessToken), inttest.WithHeader("Content-Type", w.FormDataContentType()))

		assert.Contains(t, string(body), "only images can be uploaded")
	})

	t.Run("RejectUnauthenticated", func(t *testing.T) {
		w, b := form(t, []byte("\x89PNG\r\n\x1a\n"))

		client.Do(t, http.MethodPost, "/uploads", b, http.StatusUnauthorized, inttest.WithHeader("Content-Type", w.FormDataContentType()))
	})
}
