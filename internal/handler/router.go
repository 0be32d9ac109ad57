package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/eventkb/internal/middleware"
)

type RouterDeps struct {
	Sources        *SourceHandler
	Query          *QueryHandler
	Health         *HealthHandler
	QueryRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", deps.Health.Check)

	api.POST("/events/:event_id/sources", deps.Sources.Create)
	api.GET("/events/:event_id/sources", deps.Sources.List)
	api.GET("/sources/:id", deps.Sources.Get)

	api.POST("/query", middleware.RateLimit(deps.QueryRateLimit), deps.Query.Query)
}
