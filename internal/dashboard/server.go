// Package dashboard serves the read-only status UI and JSON API over
// the snapshot cache. It never dials the monitored systems itself.
package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/shtops/internal/cache"
	"github.com/danmuck/shtops/internal/observability"
	"github.com/danmuck/shtops/internal/status"
)

type Server struct {
	cacheDir string
	ttl      time.Duration
	started  time.Time
	router   *gin.Engine
}

func New(cacheDir string, ttl time.Duration, corsOrigins []string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
	r.SetHTMLTemplate(indexTemplate)

	s := &Server{
		cacheDir: cacheDir,
		ttl:      ttl,
		started:  time.Now(),
		router:   r,
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("dashboard_listen")
	return s.router.Run(addr)
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": "shtops-dashboard",
			"version": "0.1.0",
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/api/status", func(c *gin.Context) {
		report := status.Collect(s.cacheDir, s.ttl)
		c.JSON(http.StatusOK, gin.H{
			"overall_status": report.Overall,
			"attention":      attentionPayload(report),
			"cache":          cachePayload(report),
		})
	})

	s.router.GET("/api/cache/:system", func(c *gin.Context) {
		system := c.Param("system")
		if !knownSystem(system) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown system: " + system})
			return
		}
		cf := cache.Load(system, s.cacheDir, s.ttl)
		if !cf.Exists {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for " + system})
			return
		}
		if cf.Err != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": cf.Err})
			return
		}
		c.JSON(http.StatusOK, cf.Data)
	})

	s.router.GET("/", func(c *gin.Context) {
		report := status.Collect(s.cacheDir, s.ttl)
		c.HTML(http.StatusOK, "index", viewModel(report))
	})
}

func knownSystem(name string) bool {
	for _, s := range status.Systems {
		if s == name {
			return true
		}
	}
	return false
}

// attentionPayload keeps the JSON list present even when empty.
func attentionPayload(report status.Report) []status.AttentionItem {
	if report.Attention == nil {
		return []status.AttentionItem{}
	}
	return report.Attention
}

func cachePayload(report status.Report) map[string]any {
	out := make(map[string]any, len(report.Cache))
	for system, cf := range report.Cache {
		entry := map[string]any{
			"exists": cf.Exists,
			"fresh":  cf.Fresh,
			"path":   cf.Path,
		}
		if cf.HasAge {
			entry["age_seconds"] = cf.AgeSeconds
			entry["age"] = status.FormatAge(cf.AgeSeconds)
		}
		if !cf.CollectedAt.IsZero() {
			entry["collected_at"] = cf.CollectedAt.UTC().Format(time.RFC3339)
		}
		if cf.Err != "" {
			entry["error"] = cf.Err
		}
		out[system] = entry
	}
	return out
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
