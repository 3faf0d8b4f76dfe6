package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/adapters/signal"
	"github.com/sgrey/chatline/internal/app/orch"
	"github.com/sgrey/chatline/internal/config"
	"github.com/sgrey/chatline/internal/store"
)

// API bundles the collaborators the handlers need.
type API struct {
	Store *store.Store
	Orch  *orch.Orchestrator
}

func SetupRouter(ctx context.Context, cfg *config.Config, st *store.Store, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", cookieStore))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := &API{Store: st, Orch: o}
	ctl := signal.NewController(o, st, cfg)

	pub := r.Group("/api")
	pub.POST("/register", api.Register)
	pub.POST("/login", api.Login)
	pub.POST("/logout", api.Logout)

	auth := r.Group("/api", RequireAuth())
	auth.GET("/me", api.Me)
	auth.GET("/chats", api.ListChats)
	auth.POST("/chats", api.CreateChat)
	auth.GET("/chats/:id/messages", api.ChatHistory)
	auth.POST("/chats/:id/messages", api.SendMessage)
	auth.GET("/users/search", api.SearchUsers)

	auth.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Int64("user", c.GetInt64("user_id")).Msg("ws endpoint hit")
		ctl.HandleSocket(ctx, c)
	})

	return r
}
