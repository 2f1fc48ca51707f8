package middleware

import (
	"net/http"
	"slices"

	"github.com/darielruizg/Puntodeventa/internal/apierror"

	"github.com/gin-gonic/gin"
)

// CORS lets the terminal UI call the API from the origins in CORS_ORIGENES.
// "*" allows any origin. An allowed origin is echoed back; a preflight from
// any other origin gets 403.
func CORS(origenes []string) gin.HandlerFunc {
	todos := slices.Contains(origenes, "*")
	return func(c *gin.Context) {
		origen := c.GetHeader("Origin")
		permitido := origen != "" && (todos || slices.Contains(origenes, origen))

		if permitido {
			c.Header("Access-Control-Allow-Origin", origen)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		}
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && origen != "" {
			if !permitido {
				apierror.Abortar(c, http.StatusForbidden, "Origen no permitido")
				return
			}
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
