package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Attend/internal/adapters/signal"
	"github.com/dkeye/Attend/internal/app/orch"
	"github.com/dkeye/Attend/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

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

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("AttendSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	rooms := &RoomHandlers{Rooms: o.Rooms}
	api := r.Group("/api")
	api.GET("/rooms", rooms.List)
	api.GET("/rooms/:id", rooms.Get)
	api.POST("/rooms", rooms.Create)

	ctrl := signal.NewSignalWSController(o, signal.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		SendQueue:    cfg.SendQueue,
		RateLimit:    cfg.Session.RateLimit,
		RateInterval: cfg.Session.RateInterval,
	})
	ws := api.Group("/ws")
	if cfg.Auth.JWTSecret != "" {
		ws.Use(IdentityMiddleware(cfg.Auth.JWTSecret))
	}
	ws.GET("/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("client", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Bool("auth", cfg.Auth.JWTSecret != "").Msg("router setup")
	return r
}
