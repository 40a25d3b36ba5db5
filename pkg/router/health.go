package router

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	healthHandler := func(c *gin.Context) {
		checker := r.Container.Health

		status, code := "ok", http.StatusOK
		if !checker.IsSystemHealthy() {
			status, code = "unavailable", http.StatusServiceUnavailable
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		c.JSON(code, gin.H{
			"status":     status,
			"version":    os.Getenv("APP_VERSION"),
			"timestamp":  time.Now().Format(time.RFC3339),
			"components": checker.GetStatus(),
			"websocket": gin.H{
				"active_connections": r.Container.Directory.Count(),
			},
			"memory": gin.H{
				"alloc_mb":  memStats.Alloc / 1024 / 1024,
				"sys_mb":    memStats.Sys / 1024 / 1024,
				"gc_cycles": memStats.NumGC,
			},
		})
	}

	// Register both health endpoint paths for compatibility
	r.Engine.GET("/health", healthHandler)
	r.Engine.GET("/api/health", healthHandler)
}
