package api

import (
	"github.com/askwhyharsh/deskfinder/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, handler *Handler, wsHandler WebSocketHandler, rlMiddleware *ratelimit.Middleware, corsOrigins []string) {
	// Apply global middleware
	r.Use(CORSMiddleware(corsOrigins))
	r.Use(RequestTimeMiddleware())

	// Health check (no rate limit)
	r.GET("/api/health", handler.Health)

	r.Use(rlMiddleware.IPRateLimit()) // IP-based rate limiting

	r.GET("/", handler.Index)
	r.GET("/coworking_space/:id", handler.ShowListing)

	api := r.Group("/api")
	{
		session := api.Group("/session")
		{
			session.POST("/create", handler.CreateSession)
			session.POST("/location", rlMiddleware.SessionRequired(), handler.ValidSession(), handler.ReportLocation)
			session.DELETE("", rlMiddleware.SessionRequired(), handler.ValidSession(), handler.EndSession)
		}

		listings := api.Group("/listings", rlMiddleware.SessionRequired(), handler.ValidSession())
		{
			listings.GET("", handler.GetListings)
			listings.GET("/search", handler.SearchListings)
			listings.GET("/filter", handler.FilterListings)
		}

		api.GET("/directions", rlMiddleware.SessionRequired(), handler.ValidSession(), handler.GetDirections)
	}

	// WebSocket route
	r.GET("/ws", wsHandler.HandleWebSocket)
}

type WebSocketHandler interface {
	HandleWebSocket(c *gin.Context)
}
