package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantMiddleware extracts tenant ID from headers
// SECURITY: No default tenant fallback - requests without tenant context are rejected
// NOTE: First checks if tenant_id was already set by AuthMiddleware from the JWT claims
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")

		// If not set from the token, try the X-Tenant-ID header (legacy)
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}

		// SECURITY: No default fallback - fail closed
		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TENANT_REQUIRED",
					"message": "Tenant ID is required. Include X-Tenant-ID header or a token with a tenant claim.",
				},
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

// GetClientID retrieves the client identity from gin context. Client
// tokens carry it in their claims; staff requests pass it as a query
// parameter when acting on a client's behalf.
func GetClientID(c *gin.Context) string {
	if clientID := c.GetString("client_id"); clientID != "" {
		return clientID
	}
	return c.Query("clientId")
}
