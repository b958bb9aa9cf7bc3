// Package server wires the HTTP API together: router, auth middleware,
// background queue workers and the storage sweep schedule.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/kutbudev/planora/internal/audit"
	"github.com/kutbudev/planora/internal/auth"
	"github.com/kutbudev/planora/internal/config"
	"github.com/kutbudev/planora/internal/handlers"
	"github.com/kutbudev/planora/internal/jobs"
	"github.com/kutbudev/planora/internal/models"
	"github.com/kutbudev/planora/internal/queue"
	"github.com/kutbudev/planora/internal/storage"
)

const (
	importRetention = 24 * time.Hour
	exportRetention = 7 * 24 * time.Hour
)

// Server owns the HTTP listener and the background machinery behind it.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	queue  *queue.Queue
	cron   *cron.Cron
	log    *slog.Logger
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, db *gorm.DB, log *slog.Logger) (*Server, error) {
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	runner := jobs.NewRunner(db, store, log)
	q := queue.New(cfg.Queue.Size, runner.Run, log)

	gate := auth.NewGate(db)
	recorder := audit.NewRecorder(db, log)
	h := handlers.New(db, gate, recorder, store, q, log, cfg.App.Debug)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))

	registerRoutes(engine, db, h)

	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		sweep(store, log, "imports", importRetention)
	}); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("@daily", func() {
		sweep(store, log, "exports", exportRetention)
	}); err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		engine: engine,
		queue:  q,
		cron:   c,
		log:    log,
	}, nil
}

func registerRoutes(engine *gin.Engine, db *gorm.DB, h *handlers.Handler) {
	api := engine.Group("/api")
	api.POST("/login", h.Login)

	authed := api.Group("", auth.Authenticate(db))
	authed.POST("/logout", h.Logout)
	authed.GET("/user", h.Me)

	authed.GET("/categories", h.ListCategories)
	authed.POST("/categories", h.CreateCategory)
	authed.GET("/categories/:uuid", h.GetCategory)
	authed.PUT("/categories/:uuid", h.UpdateCategory)
	authed.DELETE("/categories/:uuid", h.DeleteCategory)
	authed.GET("/categories/:uuid/:action", h.CategorySubGet)
	authed.POST("/categories/:uuid/:action", h.CategorySubPost)
	authed.GET("/categories-for-select", h.CategoriesForSelect)

	authed.GET("/projects", h.ListProjects)
	authed.POST("/projects", h.CreateProject)
	authed.GET("/projects/:uuid", h.GetProject)
	authed.PUT("/projects/:uuid", h.UpdateProject)
	authed.DELETE("/projects/:uuid", h.DeleteProject)
	authed.GET("/projects/:uuid/:action", h.ProjectSubGet)
	authed.POST("/projects/:uuid/:action", h.ProjectSubPost)
	authed.GET("/projects-for-select", h.ProjectsForSelect)

	authed.GET("/tasks", h.ListTasks)
	authed.POST("/tasks", h.CreateTask)
	authed.GET("/tasks/:uuid", h.GetTask)
	authed.PUT("/tasks/:uuid", h.UpdateTask)
	authed.DELETE("/tasks/:uuid", h.DeleteTask)
	authed.GET("/tasks/:uuid/:action", h.TaskSubGet)
	authed.POST("/tasks/:uuid/:action", h.TaskSubPost)

	authed.GET("/roles", h.ListRoles)
	authed.POST("/roles", h.CreateRole)
	authed.GET("/roles/:uuid", h.GetRole)
	authed.PUT("/roles/:uuid", h.UpdateRole)
	authed.DELETE("/roles/:uuid", h.DeleteRole)
	authed.GET("/permissions", h.ListPermissions)

	admin := authed.Group("", auth.RequireRole(models.AdminRole))
	admin.GET("/users", h.ListUsers)
	admin.POST("/users", h.CreateUser)
	admin.GET("/users/:uuid", h.GetUser)
	admin.PUT("/users/:uuid", h.UpdateUser)
	admin.DELETE("/users/:uuid", h.DeleteUser)
	admin.GET("/all-roles", h.ListAllRoles)
}

// Run serves until ctx is cancelled, then drains the queue and shuts the
// listener down.
func (s *Server) Run(ctx context.Context) error {
	s.queue.Start(ctx, s.cfg.Queue.Workers)
	s.cron.Start()

	srv := &http.Server{
		Addr:    s.cfg.Server.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.cron.Stop()
	s.queue.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func sweep(store *storage.Store, log *slog.Logger, dir string, maxAge time.Duration) {
	removed, err := store.Sweep(dir, maxAge)
	if err != nil {
		log.Warn("storage sweep failed", "dir", dir, "error", err)
		return
	}
	if removed > 0 {
		log.Info("storage sweep", "dir", dir, "removed", removed)
	}
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
