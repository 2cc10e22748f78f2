// Package server is the HTTP request boundary: routing, auth, and the
// translation of service errors into status codes.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig wires handlers and middleware into the engine.
type RouterConfig struct {
	JWTSecret   string
	CORSOrigins []string

	Attempts *AttemptHandler
	Dialogue *DialogueHandler
	Profile  *ProfileHandler

	Log *zap.Logger
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Log))
	r.Use(CORS(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		respondOK(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(RequireAuth(cfg.JWTSecret))
	{
		api.POST("/attempts", cfg.Attempts.Submit)

		api.POST("/dialogue/sessions", cfg.Dialogue.Start)
		api.POST("/dialogue/sessions/:id/messages", cfg.Dialogue.Respond)
		api.POST("/dialogue/sessions/:id/complete", cfg.Dialogue.Complete)

		api.GET("/languages/:language/profile", cfg.Profile.Get)
	}

	return r
}
