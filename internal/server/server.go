package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"clipshare/internal/app"
	"clipshare/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// MaxUploadBytes caps multipart request bodies. Zero means 512 MiB.
	MaxUploadBytes int64
}

// Server exposes the HTTP API.
type Server struct {
	app       *app.App
	mux       *http.ServeMux
	maxUpload int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 512 << 20
	}
	s := &Server{
		app:       cfg.App,
		mux:       http.NewServeMux(),
		maxUpload: maxUpload,
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// account lifecycle
	s.mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/auth/verify", s.handleVerify)
	s.mux.HandleFunc("POST /api/auth/resend-code", s.handleResendCode)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/refresh", s.handleRefresh)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.Handle("GET /api/auth/me", s.authenticated(s.handleMe))
	s.mux.Handle("PATCH /api/auth/me", s.authenticated(s.handleUpdateMe))
	s.mux.Handle("PUT /api/auth/me/picture", s.authenticated(s.handleSetPicture))

	// users
	s.mux.Handle("GET /api/users/{id}", s.authenticated(s.handleGetUser))
	s.mux.HandleFunc("GET /api/users/{id}/picture", s.handleUserPicture)
	s.mux.Handle("GET /api/users/{id}/content", s.authenticated(s.handleContentByUser))

	// content
	s.mux.Handle("POST /api/content", s.authenticated(s.handleSubmit))
	s.mux.Handle("GET /api/content/mine", s.authenticated(s.handleMyContent))
	s.mux.Handle("GET /api/content/{id}", s.authenticated(s.handleGetContent))
	s.mux.Handle("DELETE /api/content/{id}", s.authenticated(s.handleDeleteContent))
	s.mux.Handle("GET /api/content/{id}/media/{index}", s.authenticated(s.handleStreamMedia))
	s.mux.Handle("GET /api/content/{id}/media/{index}/url", s.authenticated(s.handleMediaURL))
	s.mux.Handle("GET /api/content/{id}/thumbnail", s.authenticated(s.handleThumbnail))

	// interactions
	s.mux.Handle("POST /api/content/{id}/like", s.authenticated(s.counter(s.app.Like)))
	s.mux.Handle("POST /api/content/{id}/dislike", s.authenticated(s.counter(s.app.Dislike)))
	s.mux.Handle("POST /api/content/{id}/view", s.authenticated(s.counter(s.app.View)))
	s.mux.Handle("POST /api/content/{id}/share", s.authenticated(s.counter(s.app.Share)))
	s.mux.Handle("DELETE /api/content/{id}/reaction", s.authenticated(s.counter(s.app.RemoveReaction)))
	s.mux.Handle("POST /api/content/{id}/comments", s.authenticated(s.handleAddComment))
	s.mux.Handle("GET /api/content/{id}/comments", s.authenticated(s.handleListComments))
	s.mux.Handle("POST /api/content/{id}/report", s.authenticated(s.handleReport))

	// discovery
	s.mux.HandleFunc("GET /api/feed", s.handleFeed)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/search/suggestions", s.handleSuggestions)

	// admin
	s.mux.Handle("GET /api/admin/content/pending", s.adminOnly(s.handlePending))
	s.mux.Handle("POST /api/admin/content/{id}/approve", s.adminOnly(s.handleApprove))
	s.mux.Handle("POST /api/admin/content/{id}/reject", s.adminOnly(s.handleReject))
	s.mux.Handle("GET /api/admin/content/search", s.adminOnly(s.handleAdminSearch))
	s.mux.Handle("GET /api/admin/reports", s.adminOnly(s.handleReports))
	s.mux.Handle("DELETE /api/admin/reports/{id}", s.adminOnly(s.handleDismissReport))
	s.mux.Handle("GET /api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("POST /api/admin/users", s.adminOnly(s.handleCreateAdmin))
	s.mux.Handle("GET /api/admin/users/search", s.adminOnly(s.handleSearchUsers))
	s.mux.Handle("PUT /api/admin/users/{id}/block", s.adminOnly(s.handleBlockUser(false)))
	s.mux.Handle("PUT /api/admin/users/{id}/unblock", s.adminOnly(s.handleBlockUser(true)))
	s.mux.Handle("PUT /api/admin/users/{id}/toggle", s.adminOnly(s.handleToggleUser))
	s.mux.Handle("DELETE /api/admin/users/{id}", s.adminOnly(s.handleDeleteUser))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, err := s.app.Authenticate(token)
		if err != nil {
			s.respondError(w, err)
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request, user domain.User) {
		if user.Role != domain.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r, user)
	})
}

// counter adapts the increment operations into one handler shape.
func (s *Server) counter(op func(string) error) authHandler {
	return func(w http.ResponseWriter, r *http.Request, _ domain.User) {
		if err := op(r.PathValue("id")); err != nil {
			s.respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// respondError maps application errors onto HTTP statuses. Unrecognized
// errors log server-side and surface as a generic 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidCode),
		errors.Is(err, app.ErrInvalidToken),
		errors.Is(err, app.ErrExpiredToken),
		errors.Is(err, app.ErrInactiveAccount):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists), errors.Is(err, app.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrCodeRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
