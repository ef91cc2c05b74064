package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RPCHandler dispatches timeline methods and renders calendar feeds.
type RPCHandler interface {
	Handle(ctx context.Context, actor, method string, params json.RawMessage) (any, error)
	ExportCalendar(ctx context.Context, configurationName, startDate, endDate string, filters json.RawMessage) (string, error)
}

// AnonymousPrincipal is the actor used when no authentication is configured.
const AnonymousPrincipal = "anonymous"

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
}

// NewServer creates an HTTP router. The health check is public; the RPC
// endpoint and calendar feeds sit behind authMiddleware when it is set.
func NewServer(handler RPCHandler, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/rpc", srv.handleRPC)
		r.Get("/timeline/{configuration}.ics", srv.handleCalendar)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func actorFromRequest(r *http.Request) string {
	if principal, ok := PrincipalFromContext(r.Context()); ok && principal != "" {
		return principal
	}
	return AnonymousPrincipal
}

type coded interface {
	CodeValue() string
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		code := ErrInvalidReq
		if errors.Is(err, ErrParse) {
			code = ErrParseCode
		}
		WriteError(w, nil, code, err.Error(), nil)
		return
	}

	result, err := s.handler.Handle(r.Context(), actorFromRequest(r), req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var c coded
		if errors.As(err, &c) && c.CodeValue() == "METHOD_NOT_FOUND" {
			WriteError(w, req.ID, ErrMethodNotFound, err.Error(), nil)
			return
		}
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "configuration")
	q := r.URL.Query()

	var filters json.RawMessage
	if raw := q.Get("filters"); raw != "" {
		filters = json.RawMessage(raw)
	}

	body, err := s.handler.ExportCalendar(r.Context(), name, q.Get("start_date"), q.Get("end_date"), filters)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
