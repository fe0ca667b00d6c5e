package utils

import "github.com/gin-gonic/gin"

// JSONError writes the structured error body used by every endpoint:
// {"error": {"code": "error.xxx", "message": "..."}}
func JSONError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func JSONMessage(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}
