package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

func NewHandler(logger *slog.Logger, checks map[string]Check) Handler {
	return Handler{logger, checks}
}

type Handler struct {
	logger *slog.Logger
	checks map[string]Check
}

// Health responds with 200 if every dependency is reachable and 503 otherwise
func (h Handler) Health(c *gin.Context) {
	// swagger:route GET /health health
	//
	// Service health
	//
	// Responses:
	//	200: Health
	//	503: Health
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	dependencies := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.ErrorContext(ctx, "Health check failed", "dependency", name, "error", err)
			dependencies[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		dependencies[name] = "up"
	}

	c.JSON(status, gin.H{"success": status == http.StatusOK, "dependencies": dependencies})
}
