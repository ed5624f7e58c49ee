package mfr

import (
	"net/http"
	"time"

	"github.com/danmuck/mfrlink/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// NewRouter builds the read-only status surface.
func NewRouter(node string, started time.Time, comm *CommManager, pic *Picture, assets *AssetView) *gin.Engine {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(node))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"node":    node,
			"uptime":  time.Since(started).String(),
			"service": "mfrd",
		})
	})

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, comm.Stats())
	})

	r.GET("/tracks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"targets":       pic.Targets(),
			"missiles":      pic.Missiles(),
			"stale_reports": pic.StaleReports(),
		})
	})

	r.GET("/assets", func(c *gin.Context) {
		c.JSON(http.StatusOK, assets.Snapshot())
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
