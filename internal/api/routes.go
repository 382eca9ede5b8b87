package api

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the handlers onto a gin engine.
func NewRouter(handler *Handler, allowedOrigins string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware(allowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/route", handler.Route)
	}

	owned := api.Group("", handler.RequireOwner)
	{
		owned.GET("/residences", handler.ListResidences)
		owned.POST("/residences", handler.CreateResidence)
		owned.GET("/residences/:id", handler.GetResidence)
		owned.PUT("/residences/:id", handler.UpdateResidence)
		owned.DELETE("/residences/:id", handler.DeleteResidence)

		owned.GET("/places", handler.ListPlaces)
		owned.POST("/places", handler.CreatePlace)
		owned.PUT("/places/:id", handler.UpdatePlace)
		owned.DELETE("/places/:id", handler.DeletePlace)

		owned.GET("/settings", handler.GetSettings)
		owned.PUT("/settings", handler.UpdateSettings)

		owned.GET("/commutes", handler.ListCommutes)
		owned.POST("/commutes/resync", handler.ResyncCommutes)
	}
}

func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", ownerHeader},
	}

	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		t := strings.TrimSpace(o)
		if t == "*" {
			origins = nil
			break
		}
		if t != "" {
			origins = append(origins, t)
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
