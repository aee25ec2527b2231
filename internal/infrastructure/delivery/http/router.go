// Package httprouter serves the status endpoints of a running process.
package httprouter

import (
	"log/slog"
	"net/http"
	"slices"

	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/infrastructure/delivery/http/middleware"
	"hotsoonripper/internal/infrastructure/delivery/http/response"
)

// StatusProvider reports the progress of the current run.
type StatusProvider interface {
	Snapshot() entity.RunSnapshot
}

type Router struct {
	*http.ServeMux
	log         *slog.Logger
	globalChain []func(http.Handler) http.Handler
	status      StatusProvider
	metrics     http.Handler
}

// New builds the router. A nil metrics handler leaves /metrics unregistered.
func New(log *slog.Logger, status StatusProvider, metrics http.Handler) *Router {
	r := &Router{
		ServeMux: http.NewServeMux(),
		log:      log.With(slog.String("package", "httprouter")),
		status:   status,
		metrics:  metrics,
	}

	r.Use(
		middleware.Recoverer(r.log),
		middleware.RequestID,
		middleware.Logger(r.log),
	)
	r.SetRoutes()

	return r
}

func (r *Router) Use(mw ...func(http.Handler) http.Handler) {
	r.globalChain = append(r.globalChain, mw...)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var h http.Handler = r.ServeMux

	for _, mw := range slices.Backward(r.globalChain) {
		h = mw(h)
	}

	h.ServeHTTP(w, req)
}

func (r *Router) SetRoutes() {
	r.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.HandleFunc("GET /v1/status", r.Status)

	if r.metrics != nil {
		r.Handle("GET /metrics", r.metrics)
	}
}

// Status returns the run snapshot.
func (r *Router) Status(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, "run status", r.status.Snapshot())
}
