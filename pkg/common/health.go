package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the payload of the health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthCheck returns a handler reporting service liveness plus the result of
// each optional dependency check.
func HealthCheck(serviceName string, checks map[string]func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		var results map[string]string

		if len(checks) > 0 {
			results = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(); err != nil {
					results[name] = "unhealthy: " + err.Error()
					status = "unhealthy"
				} else {
					results[name] = "healthy"
				}
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, HealthResponse{Status: status, Service: serviceName, Checks: results})
	}
}
