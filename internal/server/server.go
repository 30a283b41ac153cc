// Package server exposes a table store over the REST protocol the remote
// client speaks.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ssot/internal/model"
	"ssot/internal/remote"
	"ssot/internal/source"
	"ssot/internal/store"
	"ssot/internal/util/logx"
	"ssot/internal/version"
)

// Tables is what the handlers need from a store. *store.Store and
// *store.Local both satisfy it.
type Tables interface {
	Fetch(ctx context.Context, rt model.ResourceType) (model.Dataset, error)
	ApplyByKey(rt model.ResourceType, p source.Payload) (int, error)
	ApplyByCompoundKey(rt model.ResourceType, p source.Payload) (int, error)
}

var validate = validator.New()

type metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	updated  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssot",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by route and status code",
		}, []string{"route", "code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ssot",
			Subsystem: "api",
			Name:      "request_seconds",
			Help:      "API request latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"route"}),
		updated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ssot",
			Subsystem: "api",
			Name:      "records_updated_total",
			Help:      "Records written by update operations",
		}, []string{"resource", "scope"}),
	}
}

// Server owns the router and its metrics registry.
type Server struct {
	tables Tables
	reg    *prometheus.Registry
	m      *metrics
	engine *gin.Engine
}

func New(t Tables) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{tables: t, reg: reg, m: newMetrics(reg)}
	s.engine = s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.observe())
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.String()}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/:resource", s.fetch)
	api.PUT("/:resource/by-key", s.update("by-key"))
	api.PUT("/:resource/by-compound-key", s.update("by-compound-key"))
	return r
}

// requestID echoes the caller's X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(remote.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(remote.RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		d := time.Since(start)
		s.m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		s.m.latency.WithLabelValues(route).Observe(d.Seconds())
		logx.Infof("api: %s %s -> %d in %s (rid=%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), d.Round(time.Microsecond), c.GetString("request_id"))
	}
}

func resource(c *gin.Context) (model.ResourceType, bool) {
	rt, err := model.ParseResource(c.Param("resource"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return rt, true
}

func (s *Server) fetch(c *gin.Context) {
	rt, ok := resource(c)
	if !ok {
		return
	}
	ds, err := s.tables.Fetch(c.Request.Context(), rt)
	if err != nil {
		logx.Errorf("api: fetch %s: %v", rt, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, remote.Envelope{Data: ds})
}

func (s *Server) update(scope string) gin.HandlerFunc {
	apply := s.tables.ApplyByKey
	if scope == "by-compound-key" {
		apply = s.tables.ApplyByCompoundKey
	}
	return func(c *gin.Context) {
		rt, ok := resource(c)
		if !ok {
			return
		}
		var p source.Payload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		if err := validate.Struct(p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
			return
		}
		n, err := apply(rt, p)
		if err != nil {
			logx.Warnf("api: %s %s: %v", rt, scope, err)
			c.JSON(statusOf(err), gin.H{"error": err.Error()})
			return
		}
		s.m.updated.WithLabelValues(string(rt), scope).Add(float64(n))
		c.JSON(http.StatusOK, remote.UpdateResult{Success: true, Updated: n})
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNoMatch):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, store.ErrMissingKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logx.Infof("api: listening on %s", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
