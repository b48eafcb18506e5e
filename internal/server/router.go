package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/flowctl/internal/metrics"
	"github.com/loykin/flowctl/internal/service"
)

// Router exposes the supervisor over HTTP for serve mode.
// Endpoints:
//
//	GET  /api/status          all roster identities
//	POST /api/start?name=...  start one service
//	POST /api/stop?name=...   stop one service
//	GET  /metrics             prometheus metrics
//
// The mutations run the same sequential lifecycle paths as the CLI; this is
// a convenience surface for a single operator, not a coordination layer.
type Router struct {
	sup *service.Supervisor
}

// NewRouter wraps a supervisor.
func NewRouter(sup *service.Supervisor) *Router {
	return &Router{sup: sup}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	api := g.Group("/api")
	api.GET("/status", r.handleStatus)
	api.POST("/start", r.handleStart)
	api.POST("/stop", r.handleStop)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, sup *service.Supervisor) *http.Server {
	r := NewRouter(sup)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second, // stop can block for the full drain timeout
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK  bool `json:"ok"`
	PID int  `json:"pid,omitempty"`
}

func (r *Router) handleStatus(c *gin.Context) {
	sts, err := r.sup.Statuses()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, sts)
}

func (r *Router) resolve(c *gin.Context) (service.Role, bool) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, errorResp{Error: "name required"})
		return service.Role{}, false
	}
	role, err := r.sup.Lookup(name)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResp{Error: err.Error()})
		return service.Role{}, false
	}
	return role, true
}

func (r *Router) handleStart(c *gin.Context) {
	role, ok := r.resolve(c)
	if !ok {
		return
	}
	pid, err := r.sup.Start(role)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrAlreadyRunning) {
			status = http.StatusConflict
		}
		c.JSON(status, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true, PID: pid})
}

func (r *Router) handleStop(c *gin.Context) {
	role, ok := r.resolve(c)
	if !ok {
		return
	}
	if err := r.sup.Stop(role); err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, okResp{OK: true})
}
