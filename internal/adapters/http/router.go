package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/pyth0nkod3r/coding-interview-platform/internal/adapters/signal"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/config"
	"github.com/pyth0nkod3r/coding-interview-platform/internal/domain"
)

// SetupRouter wires the signaling upgrade endpoint plus the operational
// surface (health, metrics, administrative session close). CRUD for
// sessions/questions/messages lives in a separate service.
func SetupRouter(ctx context.Context, cfg *config.Config, ctrl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/signal/:sessionId", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("session", c.Param("sessionId")).Msg("signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"active_sessions": ctrl.Relay.Reg.ActiveSessions(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Invoked by the session service when an interview is ended
	// administratively; forces both slots closed.
	api := r.Group("/api")
	api.DELETE("/sessions/:sessionId/connections", func(c *gin.Context) {
		sid := domain.SessionID(c.Param("sessionId"))
		ctrl.Relay.CloseSessionConnections(sid)
		c.Status(http.StatusNoContent)
	})

	return r
}
