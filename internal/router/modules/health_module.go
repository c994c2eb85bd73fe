package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/qualopt/internal/container"
	"github.com/oksasatya/qualopt/pkg/response"
)

// HealthModule reports whether Postgres and Redis answer: GET /api/health.
type HealthModule struct{}

func NewHealthModule() *HealthModule { return &HealthModule{} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok", "invitations": "enabled"}
		healthy := true
		if pool := container.GetPGPool(); pool == nil || pool.Ping(ctx) != nil {
			checks["postgres"], healthy = "down", false
		}
		if rdb := container.GetRedis(); rdb == nil || rdb.Ping(ctx).Err() != nil {
			checks["redis"], healthy = "down", false
		}
		if container.GetScheduler() == nil {
			checks["invitations"] = "disabled"
		}
		if !healthy {
			response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", checks)
			return
		}
		response.Success(c, http.StatusOK, checks, "healthy", nil)
	})
}
