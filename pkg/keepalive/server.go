// Package keepalive runs the HTTP liveness responder hosting platforms
// probe to keep the bot process awake. It shares no mutable state with
// the task store beyond a read-only task count on /healthz.
package keepalive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cloudcarver/taskbot/pkg/core/task"
)

// TaskLister is the slice of the task store the health report reads.
type TaskLister interface {
	List(ctx context.Context, filter task.Filter) ([]task.Task, error)
}

type Server struct {
	log     *zap.Logger
	srv     *http.Server
	tasks   TaskLister
	started time.Time
}

func New(port int, tasks TaskLister, log *zap.Logger) *Server {
	s := &Server{
		log:     log,
		tasks:   tasks,
		started: time.Now(),
	}
	s.srv = &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "Bot is alive!")
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		report := struct {
			Status string `json:"status"`
			Uptime string `json:"uptime"`
			Tasks  int    `json:"tasks"`
		}{
			Status: "ok",
			Uptime: time.Since(s.started).Round(time.Second).String(),
		}
		if s.tasks != nil {
			all, err := s.tasks.List(req.Context(), task.FilterAll)
			if err != nil {
				report.Status = "degraded"
			} else {
				report.Tasks = len(all)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(report); err != nil && s.log != nil {
			s.log.Warn("failed to write health report", zap.Error(err))
		}
	})

	return r
}

// Start blocks serving probes until Shutdown is called.
func (s *Server) Start() error {
	if s.log != nil {
		s.log.Info("keep-alive server listening", zap.String("addr", s.srv.Addr))
	}
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "keep-alive server failed")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
