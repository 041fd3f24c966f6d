package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with recovery and CORS for the kiosk front end.
func NewRouter(allowedOrigins []string, handler *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))
	SetupRoutes(router, handler)
	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/site", handler.GetSite)
		api.GET("/feed", handler.GetFeed)
		api.POST("/feed/reset", handler.ResetFeed)
		api.GET("/homes", handler.GetHomes)
		api.GET("/homes/:id", handler.GetHome)
		api.GET("/lots", handler.GetLots)
		api.GET("/lots/:id", handler.GetLot)
		api.GET("/map/style", handler.GetMapStyle)
		api.POST("/session/activity", handler.PostActivity)
		api.GET("/session", handler.GetSession)
		api.POST("/navigate", handler.PostNavigate)
	}
}
