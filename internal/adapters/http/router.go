package http

import (
	"context"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/adapters/metrics"
	"github.com/parleyhq/parley/internal/adapters/signal"
	"github.com/parleyhq/parley/internal/app"
	"github.com/parleyhq/parley/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware assigns each browser a stable opaque token; the WS
// layer uses it as the connection token.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

// RequestTrackingMiddleware feeds the request/error counters and flags slow
// handlers.
func RequestTrackingMiddleware(m app.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.RequestServed()
		start := time.Now()
		c.Next()
		if c.Writer.Status() >= 400 {
			m.ErrorTracked()
		}
		if d := time.Since(start); d > time.Second {
			log.Warn().Str("module", "adapters.http").Str("path", c.Request.URL.Path).Dur("duration", d).Msg("slow request")
		}
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, engine *app.Engine, ctl *signal.ChatWSController, m app.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ParleySessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(RequestTrackingMiddleware(m))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Chat server is running"})
	})

	r.GET("/health", healthHandler(engine, ctl))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ready", func(c *gin.Context) {
		ready := engine != nil && ctl != nil
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"ready": ready, "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})
	r.GET("/alive", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"alive": true, "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")
	api.GET("/ws/chat", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("token", c.GetString("client_token")).Msg("ws chat endpoint hit")
		ctl.HandleChat(ctx, c)
	})

	return r
}
