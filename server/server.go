package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	coodecraft "github.com/codebytemirza/coodecraft"
)

type Server struct {
	repository    coodecraft.Repository
	reconciler    coodecraft.ReconcileService
	remover       coodecraft.RemovalService
	addr          string
	adminPassword string
}

func NewServer(addr, adminPassword string, repository coodecraft.Repository, reconciler coodecraft.ReconcileService, remover coodecraft.RemovalService) Server {
	return Server{repository, reconciler, remover, addr, adminPassword}
}

func (s Server) router() *httprouter.Router {
	r := httprouter.New()

	// register routes
	r.GET("/ping", s.pingHandler())
	r.GET("/courses", s.listHandler())
	r.POST("/courses", s.requireAdmin(s.reconcileHandler()))
	r.PUT("/courses/:id", s.requireAdmin(s.updateHandler()))
	r.DELETE("/courses", s.requireAdmin(s.deleteHandler()))

	return r
}

func (s Server) Start(ctx context.Context) error {
	srv := http.Server{Addr: s.addr, Handler: s.router()}
	log.Info().Msgf("listening on %s", s.addr)

	// start server, respecting context cancelation
	errChan := make(chan error)
	go func() { errChan <- srv.ListenAndServe() }()
	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info().Msg("server shutdown complete")
	}

	return nil
}

// requireAdmin gates mutating routes behind the shared operator password.
// This is an operational speed bump, not a security boundary.
func (s Server) requireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if s.adminPassword != "" && r.Header.Get("X-Admin-Password") != s.adminPassword {
			writeError(w, http.StatusUnauthorized, "invalid admin password")
			return
		}
		next(w, r, p)
	}
}

func (s Server) pingHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("error writing ping response")
		}
	}
}

func (s Server) listHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Info().Msg("catalog request received")

		courses, err := s.repository.ListCourses(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to list courses")
			writeError(w, http.StatusInternalServerError, "failed to fetch courses")
			return
		}

		if courses == nil {
			courses = []coodecraft.Course{}
		}

		writeJSON(w, http.StatusOK, courses)
	}
}

type ReconcileRequest struct {
	Courses []coodecraft.CoursePayload `json:"courses"`
}

type ReconcileResponse struct {
	Success  bool                          `json:"success"`
	Applied  int                           `json:"applied"`
	Failures []coodecraft.ReconcileFailure `json:"failures,omitempty"`
	Courses  []coodecraft.Course           `json:"courses"`
}

func (s Server) reconcileHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Info().Msg("reconcile request received")

		var req ReconcileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Info().Err(err).Msg("error decoding reconcile request")
			writeError(w, http.StatusBadRequest, "failed to parse request")
			return
		}

		result, err := s.reconciler.Reconcile(r.Context(), req.Courses)
		if err != nil {
			log.Error().Err(err).Msg("reconcile failed")
			writeError(w, http.StatusInternalServerError, "failed to save changes")
			return
		}

		// return the catalog as it stands after the writes
		courses, err := s.repository.ListCourses(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("failed to re-fetch catalog")
			writeError(w, http.StatusInternalServerError, "failed to fetch courses")
			return
		}
		if courses == nil {
			courses = []coodecraft.Course{}
		}

		writeJSON(w, http.StatusOK, ReconcileResponse{
			Success:  len(result.Failures) == 0,
			Applied:  result.Applied,
			Failures: result.Failures,
			Courses:  courses,
		})
		log.Info().Int("applied", result.Applied).Int("failed", len(result.Failures)).Msg("reconcile request handled")
	}
}

func (s Server) updateHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id := p.ByName("id")
		log.Info().Str("course_id", id).Msg("update request received")

		var payload coodecraft.CoursePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			log.Info().Err(err).Msg("error decoding update request")
			writeError(w, http.StatusBadRequest, "failed to parse request")
			return
		}

		course, err := s.reconciler.Update(r.Context(), id, payload)
		if err != nil {
			s.writeDomainError(w, err, "update", id)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}

func (s Server) deleteHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id := r.URL.Query().Get("id")
		log.Info().Str("course_id", id).Msg("delete request received")

		if id == "" {
			writeError(w, http.StatusBadRequest, "missing course id")
			return
		}

		if err := s.remover.Remove(r.Context(), id); err != nil {
			s.writeDomainError(w, err, "delete", id)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// writeDomainError maps the error taxonomy onto status codes. Caller errors
// go back verbatim; storage errors are logged and surfaced opaque.
func (s Server) writeDomainError(w http.ResponseWriter, err error, operation, id string) {
	var validationErr coodecraft.ValidationError
	var notFoundErr coodecraft.NotFoundError
	var conflictErr coodecraft.ConflictError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundErr.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusBadRequest, conflictErr.Error())
	default:
		log.Error().Err(err).Str("operation", operation).Str("course_id", id).Msg("storage failure")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("error writing response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
