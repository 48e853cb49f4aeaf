package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instantanalytics/api/analytics"
)

const gatewayKey = "analytics_gateway"

// Analytics starts the request's analytics gateway and, once the handlers
// have run, sends the page view one of them built.
func Analytics(svc *analytics.Service, cpTrigger string) gin.HandlerFunc {
	return func(c *gin.Context) {
		g := svc.ForRequest(NewRequest(c, cpTrigger), zap.String("request_id", c.GetString(requestIDKey)))
		c.Set(gatewayKey, g)

		c.Next()

		g.SendPageView(c.Request.Context())
	}
}

// GatewayFrom returns the gateway stored by Analytics. It panics when the
// middleware is not installed.
func GatewayFrom(c *gin.Context) *analytics.Gateway {
	return c.MustGet(gatewayKey).(*analytics.Gateway)
}
