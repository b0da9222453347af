package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/congo-pay/wallet_service/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, keeping label
// cardinality bounded.
const unmatchedRoute = "unmatched"

// methodUse is the method Fiber records on routes mounted with Use.
const methodUse = "USE"

// HTTPMetrics records request counts and latency per route template. Label
// values are copied out of the request buffer, which fasthttp reuses.
func HTTPMetrics() fiber.Handler {
	metrics.Init()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := responseStatus(c, err)
		route := routeLabel(c)
		method := utils.CopyString(c.Method())
		code := strconv.Itoa(status)
		metrics.RequestsTotal.WithLabelValues(route, method, code).Inc()
		metrics.RequestLatency.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
		return err
	}
}

// responseStatus is the status the error handler will write for err, or the
// response status when the chain succeeded.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	return StatusOf(err)
}

// routeLabel is the template of the endpoint that served the request. A
// request that stopped in middleware, or matched nothing, has no template.
func routeLabel(c *fiber.Ctx) string {
	r := c.Route()
	if r == nil || len(r.Handlers) == 0 || r.Method == methodUse {
		return unmatchedRoute
	}
	return r.Path
}
