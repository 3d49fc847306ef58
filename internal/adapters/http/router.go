package http

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/dkeye/Chat/internal/adapters/signal"
	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const clientTokenKey = "ct"

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware gives every browser a stable token kept in the
// cookie session. It only labels connections in logs and connect events.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = genClientToken()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("failed to save client session")
			}
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
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("ChatSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Str("socket", cfg.SocketPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(orch, signal.OptionsFromConfig(cfg))

	// The socket path doubles as the bootstrap endpoint: a plain GET makes
	// sure the hub exists, an upgrade request opens a session.
	r.GET(cfg.SocketPath, func(c *gin.Context) {
		if !websocket.IsWebSocketUpgrade(c.Request) {
			orch.Hubs.GetOrCreate()
			c.Status(http.StatusOK)
			return
		}
		ctrl.HandleSignal(ctx, c)
	})

	r.GET("/api/health", func(c *gin.Context) {
		sessionsOpen := 0
		if hub, ok := orch.Hubs.Current(); ok {
			sessionsOpen = hub.Count()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": sessionsOpen,
		})
	})

	return r
}
