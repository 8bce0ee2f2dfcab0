package gateway

import (
	"net/http"
	"time"

	"github.com/figueredofxx/katalogo.digital/pkg/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const tenantContextKey = "gateway.tenant"

// requireTenant identifies the acting merchant from the X-Tenant-ID header
// and loads its record. Token verification sits in front of this service and
// is not repeated here.
func (g *Gateway) requireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Tenant-ID")
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tenant identity"})
			return
		}
		tenant, err := g.store.Tenants().GetByID(c.Request.Context(), id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown tenant"})
			return
		}
		// Suspended merchants keep admin access blocked; the panel shows the
		// subscription-expired screen instead.
		if tenant.Suspended() {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "subscription suspended"})
			return
		}
		c.Set(tenantContextKey, tenant)
		c.Next()
	}
}

// currentTenant returns the tenant loaded by requireTenant.
func currentTenant(c *gin.Context) *models.Tenant {
	return c.MustGet(tenantContextKey).(*models.Tenant)
}

// requireAdminHost restricts the super-admin API to the platform's own
// control-panel hosts.
func (g *Gateway) requireAdminHost() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.resolver.IsAdminHost(c.Request.Host) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "restricted to platform hosts"})
			return
		}
		c.Next()
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
