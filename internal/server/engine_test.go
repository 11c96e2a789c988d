package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	engine, router := GetEngine(logger, "/api", []string{"http://localhost:3000"})
	router.GET("/missing", func(c *gin.Context) {
		_ = c.Error(errdef.NewNotFound("nothing here"))
	})

	t.Run("ErrorEnvelopeAndCorrelationID", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		engine.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/missing", nil))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.JSONEq(t, `{"success": false, "message": "nothing here"}`, recorder.Body.String())
		assert.NotEmpty(t, recorder.Header().Get(middleware.CorrelationIDHeader))
	})

	t.Run("CORS", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/missing", nil)
		request.Header.Set("Origin", "http://localhost:3000")

		engine.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "http://localhost:3000", recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("DisallowedOrigin", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/missing", nil)
		request.Header.Set("Origin", "http://elsewhere.io")

		engine.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}
