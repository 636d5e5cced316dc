package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"daily-squad/internal/auth"
	"daily-squad/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the transport settings of the HTTP API
type RouterConfig struct {
	AllowedOrigins []string
	// Gatherer backs /metrics. Nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
}

// NewRouter wires every HTTP route onto a gin engine
func NewRouter(svc *services.Services, logger *slog.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	squadHandler := NewSquadHandler(svc, logger)
	eventHandler := NewEventHandler(svc, logger)
	outcomeHandler := NewOutcomeHandler(svc, logger)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware(logger))
	{
		// Squad endpoints
		api.POST("/squads", squadHandler.CreateSquad)
		api.POST("/squads/:id/members", squadHandler.JoinSquad)
		api.DELETE("/squads/:id/members/me", squadHandler.LeaveSquad)
		api.GET("/squads/:id/members", squadHandler.ListMembers)
		api.GET("/squads/:id/scores", squadHandler.GetJudgeScores)
		api.GET("/squads/:id/today", squadHandler.GetTodayEvent)
		api.POST("/squads/:id/events", squadHandler.CreateEvent)

		// Event lifecycle endpoints
		api.GET("/events/:id", eventHandler.GetEvent)
		api.POST("/events/:id/open", eventHandler.OpenEvent)
		api.POST("/events/:id/close", eventHandler.CloseEvent)
		api.POST("/events/:id/judge", eventHandler.DrawJudge)

		// Outcome and dispute endpoints
		api.POST("/events/:id/outcome", outcomeHandler.FinalizeOutcome)
		api.GET("/events/:id/outcome", outcomeHandler.GetOutcome)
		api.POST("/events/:id/challenges", outcomeHandler.SubmitChallenge)
		api.GET("/events/:id/challenges", outcomeHandler.ListChallenges)
	}

	return router
}
