package server

import (
	"net/http"

	"clipshare/pkg/domain"
)

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request, _ domain.User) {
	kind := domain.ContentKind(r.URL.Query().Get("kind"))
	items, err := s.app.PendingContent(kind)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, _ domain.User) {
	content, err := s.app.Approve(r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req rejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	content, err := s.app.Reject(r.PathValue("id"), req.Reason)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (s *Server) handleAdminSearch(w http.ResponseWriter, r *http.Request, _ domain.User) {
	page, err := s.app.AdminSearch(r.URL.Query().Get("q"), queryInt(r, "page", 0), queryInt(r, "size", 10))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request, _ domain.User) {
	reports, err := s.app.Reports()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": reports, "count": len(reports)})
}

func (s *Server) handleDismissReport(w http.ResponseWriter, r *http.Request, _ domain.User) {
	if err := s.app.DismissReport(r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, _ *http.Request, _ domain.User) {
	users, err := s.app.ListUsers()
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req createAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.CreateAdmin(req.Email, req.Username, req.Password)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request, _ domain.User) {
	users, err := s.app.SearchUsers(r.URL.Query().Get("q"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
}

func (s *Server) handleBlockUser(active bool) authHandler {
	return func(w http.ResponseWriter, r *http.Request, user domain.User) {
		updated, err := s.app.SetUserActive(user, r.PathValue("id"), active)
		if err != nil {
			s.respondError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleToggleUser(w http.ResponseWriter, r *http.Request, user domain.User) {
	updated, err := s.app.ToggleUserActive(user, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.DeleteUser(r.Context(), user, r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
