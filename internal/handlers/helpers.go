package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// parseID parses a numeric path parameter. Returns 0 and false on garbage.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
