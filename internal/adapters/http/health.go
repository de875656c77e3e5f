package http

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parleyhq/parley/internal/adapters/signal"
	"github.com/parleyhq/parley/internal/app"
)

// healthHandler builds the live health report from the engine's pull-style
// snapshot plus the transport's connection table.
func healthHandler(engine *app.Engine, ctl *signal.ChatWSController) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := engine.Snapshot()

		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime": gin.H{
				"seconds":   int64(snap.Uptime.Seconds()),
				"formatted": formatUptime(snap.Uptime),
			},
			"users": gin.H{
				"total":     snap.Users,
				"connected": ctl.ConnCount(),
			},
			"rooms": snap.Rooms,
			"system": gin.H{
				"platform":  runtime.GOOS,
				"goVersion": runtime.Version(),
				"memory": gin.H{
					"used":  mem.HeapAlloc / 1024 / 1024,
					"total": mem.HeapSys / 1024 / 1024,
					"unit":  "MB",
				},
				"cpu": gin.H{
					"cores": runtime.NumCPU(),
				},
			},
		})
	}
}

func formatUptime(d time.Duration) string {
	seconds := int64(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
