package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/runner"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/supervisor"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// sseHeartbeat keeps idle event streams alive through proxies.
const sseHeartbeat = 15 * time.Second

// NewHTTPHandler routes the JSON and Server-Sent Events API of s.
func NewHTTPHandler(s *SupervisorService) http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/docker", s.dockerHandler).Methods(http.MethodGet)
	api.HandleFunc("/status", s.statusHandler).Methods(http.MethodGet)
	api.HandleFunc("/running", s.runningHandler).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", s.snapshotHandler).Methods(http.MethodGet)
	api.HandleFunc("/start", s.startHandler).Methods(http.MethodPost)
	api.HandleFunc("/stop", s.stopHandler).Methods(http.MethodPost)
	api.HandleFunc("/links", s.linksHandler).Methods(http.MethodGet)
	api.HandleFunc("/containers", s.containersHandler).Methods(http.MethodGet)
	api.HandleFunc("/events", s.eventsHandler).Methods(http.MethodGet)

	router.Use(s.loggingMiddleware)
	return router
}

func (s *SupervisorService) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, runner.ErrSpawn):
		code = http.StatusFailedDependency
	case errors.Is(err, supervisor.ErrClosed):
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func (s *SupervisorService) dockerHandler(w http.ResponseWriter, r *http.Request) {
	available, err := s.supervisor.CheckDockerAvailable(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

func (s *SupervisorService) statusHandler(w http.ResponseWriter, r *http.Request) {
	running, err := s.supervisor.CheckStatus(context.WithoutCancel(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"running": running})
}

func (s *SupervisorService) runningHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"running": s.supervisor.Running()})
}

func (s *SupervisorService) snapshotHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.supervisor.Snapshot())
}

// startHandler answers once the stack settled, with the resulting snapshot.
// A failed `up` is still 200: the outcome is in the snapshot and the events.
func (s *SupervisorService) startHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.supervisor.StartServices(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.supervisor.Snapshot())
}

func (s *SupervisorService) stopHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.supervisor.StopServices(context.WithoutCancel(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.supervisor.Snapshot())
}

func (s *SupervisorService) linksHandler(w http.ResponseWriter, _ *http.Request) {
	links := s.links
	if links == nil {
		links = []lib.Link{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *SupervisorService) containersHandler(w http.ResponseWriter, r *http.Request) {
	if s.containers == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "docker API is not reachable"})
		return
	}
	cs, err := s.containers.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// eventsHandler streams events as `event: log|status` frames whose data is
// the JSON payload.
func (s *SupervisorService) eventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, current, err := s.subscribe()
	if err != nil {
		writeError(w, supervisor.ErrClosed)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSSE(w, current); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			if err := writeSSE(w, e); err != nil {
				s.logger.Debug("event stream write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, e lib.Event) error {
	var payload any = e.Status
	if e.Topic == lib.TopicLog {
		payload = e.Log
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Topic, data)
	return err
}
