package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/adapters/ws"
	"github.com/danielavelez12/crosstalk/internal/config"
	"github.com/danielavelez12/crosstalk/internal/store"
	"github.com/danielavelez12/crosstalk/internal/tts"
)

func genClientToken() string {
	return uuid.NewString()
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

func SetupRouter(ctx context.Context, cfg *config.Config, st *store.Store, cloner tts.VoiceCloner, wsCtl *ws.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	cookieStore := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("CrosstalkSessions", cookieStore))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &Handlers{Store: st, Cloner: cloner}

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/signup", h.Signup)
	api.POST("/login", h.Login)
	api.PUT("/users/:id/language", h.UpdateLanguage)
	api.POST("/voices", h.CreateVoice)
	api.GET("/users/:id/voice", h.GetVoice)

	r.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.Query("user_id")).Msg("ws endpoint hit")
		wsCtl.HandleWS(ctx, c)
	})

	return r
}
