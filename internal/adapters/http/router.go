package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/adapters/ws"
	"github.com/studyhive/studyhive/internal/app"
	"github.com/studyhive/studyhive/internal/config"
)

// ClientTokenMiddleware gives every browser a stable token so reconnects can
// be correlated in logs.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("StudyHiveSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Orch: orch}
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)

	ctl := ws.NewController(orch, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").
			Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.Handle(ctx, c)
	})

	return r
}
