package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// GetPagination reads the page and limit query parameters. Missing or invalid values fall back to
// the defaults and limit is capped.
func GetPagination(c *gin.Context) (page int, limit int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}

	return page, min(limit, maxLimit)
}
