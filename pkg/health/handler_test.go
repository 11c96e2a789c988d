package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHandler_Health(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := map[string]struct {
		checks     map[string]Check
		wantStatus int
		wantBody   string
	}{
		"Up": {
			checks:     map[string]Check{"mongodb": up, "redis": up},
			wantStatus: http.StatusOK,
			wantBody:   `{"success": true, "dependencies": {"mongodb": "up", "redis": "up"}}`,
		},
		"RedisDown": {
			checks:     map[string]Check{"mongodb": up, "redis": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"success": false, "dependencies": {"mongodb": "up", "redis": "down"}}`,
		},
		"NoChecks": {
			checks:     map[string]Check{},
			wantStatus: http.StatusOK,
			wantBody:   `{"success": true, "dependencies": {}}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(slog.New(slog.NewTextHandler(os.Stdout, nil)), test.checks)
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

			h.Health(c)

			assert.Equal(t, test.wantStatus, recorder.Code)
			assert.JSONEq(t, test.wantBody, recorder.Body.String())
		})
	}
}
