package helpers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func ErrorResponse(message string) gin.H {
	return gin.H{"message": message}
}

func MessageResponse(message string) gin.H {
	return gin.H{"message": message}
}

// StringTrim trims whitespace and stray quotes that clients leave around path values.
func StringTrim(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'")
}
