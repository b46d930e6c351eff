package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/smartagricare-api/pkg/response"
)

// AllowPrivateIP returns an AllowFunc that matches requests whose direct peer
// is a loopback or private (10/8, 172.16/12, 192.168/16) address. Forwarding
// headers are ignored since clients control them.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return trustedProxy(c.RemoteIP())
	}
}

// Restrict rejects requests that allow does not match with 403.
func Restrict(allow AllowFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allow != nil && !allow(c) {
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		c.Next()
	}
}
