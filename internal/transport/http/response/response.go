package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes the payload as the whole response body. Success bodies
// are bare resource representations, not an envelope.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// Error writes a machine-readable failure reason.
func Error(c *gin.Context, httpStatus int, detail string) {
	c.JSON(httpStatus, gin.H{"detail": detail})
}
