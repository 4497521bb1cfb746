// Package server is the development backend: the REST API and per-room
// websocket streams the client talks to, with SQLite persistence. It
// mirrors the production service closely enough for local work and
// integration tests.
package server

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ethoschat/ethoschat/internal/config"
	"github.com/ethoschat/ethoschat/internal/store"
)

// NewServer builds the HTTP server with all routes registered.
func NewServer(cfg config.ServeConfig, hub *Hub, st store.MessageStore, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	h := NewHandlers(hub, st, logger)

	router.GET("/api/health", h.Health)
	router.GET("/api/rooms/:room/messages", h.ListMessages)
	router.POST("/api/rooms/:room/messages", h.PostMessage)
	router.GET("/ws/:room", h.ServeWS)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// loggerMiddleware logs HTTP requests.
func loggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if logger == nil {
			return
		}
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
