package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DeviceHeader identifies the client install. It scopes the pending and snooze flags.
const DeviceHeader = "X-Device-ID"

const maxDeviceIDLength = 128

// DeviceID reads X-Device-ID into the context. A request without one is assigned a new
// UUID, echoed back in the response header so the client can persist it.
func DeviceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(DeviceHeader)
		if id == "" {
			id = uuid.NewString()
		} else if len(id) > maxDeviceIDLength || !printable(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + DeviceHeader + " header"})
			return
		}
		c.Set(ContextDeviceID, id)
		c.Header(DeviceHeader, id)
		c.Next()
	}
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}
