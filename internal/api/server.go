// Package api exposes the exploration workflows over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/NielsdaWheelz/suno-demo/internal/media"
	"github.com/NielsdaWheelz/suno-demo/internal/observe"
	"github.com/NielsdaWheelz/suno-demo/internal/orchestrate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server routes HTTP requests to an orchestrate.Service.
type Server struct {
	svc       *orchestrate.Service
	mediaRoot string
	validate  *validator.Validate
	obs       *observe.Observer
	router    chi.Router
}

func New(svc *orchestrate.Service, mediaRoot string, obs *observe.Observer) *Server {
	if obs == nil {
		obs = observe.Nop()
	}
	s := &Server{
		svc:       svc,
		mediaRoot: mediaRoot,
		validate:  validator.New(),
		obs:       obs,
		router:    chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Post("/sessions", s.handleCreateSession)
	r.Get("/sessions/{session_id}", s.handleGetSession)
	r.Post("/sessions/{session_id}/clusters/{cluster_id}/more", s.handleMoreLike)
	r.Handle(media.URLPrefix+"/*", s.mediaHandler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.obs.Log().Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.obs.Log().Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("elapsed", time.Since(start).String()).
			Msg("request")
	})
}

// mediaHandler serves promoted clips. The staging area is not public.
func (s *Server) mediaHandler() http.Handler {
	files := http.StripPrefix(media.URLPrefix, http.FileServer(http.Dir(s.mediaRoot)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel := strings.TrimPrefix(path.Clean(r.URL.Path), media.URLPrefix+"/")
		if rel == media.StagingDirName || strings.HasPrefix(rel, media.StagingDirName+"/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.svc.CreateInitialBatch(r.Context(), req.Brief, req.Params, req.NumClips)
	if err != nil {
		s.writeError(w, err)
		return
	}
	batch, ok := sess.LastBatch()
	if !ok {
		s.writeError(w, fmt.Errorf("session %s has no batch", sess.ID))
		return
	}
	s.writeJSON(w, http.StatusOK, CreateSessionResponse{SessionID: sess.ID, Batch: NewBatchOut(batch)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathUUID(w, r, "session_id")
	if !ok {
		return
	}
	sess, found := s.svc.Store().GetSession(id)
	if !found {
		s.writeError(w, fmt.Errorf("%w: session %s", orchestrate.ErrNotFound, id))
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionOut(sess))
}

func (s *Server) handleMoreLike(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.pathUUID(w, r, "session_id")
	if !ok {
		return
	}
	clusterID, ok := s.pathUUID(w, r, "cluster_id")
	if !ok {
		return
	}
	var req moreLikeRequest
	if !s.decode(w, r, &req) {
		return
	}

	batch, err := s.svc.MoreLikeCluster(r.Context(), sessionID, clusterID, req.NumClips)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, MoreLikeResponse{
		SessionID:       sessionID,
		ParentClusterID: clusterID,
		Batch:           NewBatchOut(*batch),
	})
}

// pathUUID parses a path parameter. Malformed ids cannot name anything, so
// they are reported as not found.
func (s *Server) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Detail: fmt.Sprintf("%s %q not found", name, raw)})
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: validationDetail(err)})
		return false
	}
	return true
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		parts[i] = fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestrate.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, orchestrate.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orchestrate.ErrGenerationFailed):
		status = http.StatusInternalServerError
	default:
		s.obs.Log().Error().Err(err).Msg("unhandled error")
	}
	s.writeJSON(w, status, errorResponse{Detail: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.obs.Log().Warn().Err(err).Msg("failed to write response")
	}
}
