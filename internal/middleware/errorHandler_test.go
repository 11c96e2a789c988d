package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gatherly/gatherly/internal/errdef"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := map[string]struct {
		err      error
		wantCode int
		wantBody string
	}{
		"BadRequest": {
			err:      errdef.NewBadRequest("name is required"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"success": false, "message": "name is required"}`,
		},
		"Unauthorized": {
			err:      errdef.NewUnauthorized("token not valid"),
			wantCode: http.StatusUnauthorized,
			wantBody: `{"success": false, "message": "token not valid"}`,
		},
		"Forbidden": {
			err:      errdef.NewForbidden("only the creator may delete"),
			wantCode: http.StatusForbidden,
			wantBody: `{"success": false, "message": "only the creator may delete"}`,
		},
		"NotFound": {
			err:      errdef.NewNotFound("event not found"),
			wantCode: http.StatusNotFound,
			wantBody: `{"success": false, "message": "event not found"}`,
		},
		"UnsupportedMediaType": {
			err:      errdef.NewUnsupportedMediaType("json only"),
			wantCode: http.StatusUnsupportedMediaType,
			wantBody: `{"success": false, "message": "json only"}`,
		},
		"CapacityExceeded": {
			err:      errdef.NewCapacityExceeded(2, 2),
			wantCode: http.StatusBadRequest,
			wantBody: `{"success": false, "message": "event is full: 2 of 2 spots taken", "capacity": 2, "attendeeCount": 2, "remaining": 0}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, engine := gin.CreateTestContext(w)
			engine.Use(ErrorHandler())
			engine.GET("/", func(c *gin.Context) {
				_ = c.Error(test.err)
			})

			request, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			engine.ServeHTTP(w, request)

			assert.Equal(t, test.wantCode, w.Code)
			assert.JSONEq(t, test.wantBody, w.Body.String())
		})
	}
}

func TestErrorHandler_RedactsInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	engine.Use(CorrelationID(), ErrorHandler())
	engine.GET("/", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused by mongodb:27017"))
	})

	request, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	engine.ServeHTTP(w, request)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongodb")
	id := w.Header().Get(CorrelationIDHeader)
	require.NotEmpty(t, id)
	assert.Contains(t, w.Body.String(), id)
}

func TestErrorHandler_NoError(t *testing.T) {
	w := httptest.NewRecorder()
	_, engine := gin.CreateTestContext(w)
	engine.Use(ErrorHandler())
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	request, err := http.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, err)
	engine.ServeHTTP(w, request)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success": true}`, w.Body.String())
}
