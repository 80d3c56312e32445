package utils

import "github.com/gin-gonic/gin"

// ErrorResponse writes the error envelope shared by every endpoint.
func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// SuccessResponse writes data as the response body.
func SuccessResponse(c *gin.Context, status int, data interface{}) {
	if data == nil {
		c.JSON(status, gin.H{"success": true})
		return
	}
	c.JSON(status, data)
}
