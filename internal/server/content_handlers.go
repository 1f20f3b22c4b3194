package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"clipshare/internal/app"
	"clipshare/pkg/domain"
)

type formUpload struct {
	app.Upload
	file multipart.File
}

func (f formUpload) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

func uploadFromHeader(fh *multipart.FileHeader) (formUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return formUpload{}, fmt.Errorf("open uploaded file: %w", err)
	}
	return formUpload{
		Upload: app.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Reader:      file,
		},
		file: file,
	}, nil
}

// singleFile extracts one multipart file from the named field.
func (s *Server) singleFile(r *http.Request, field string) (formUpload, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return formUpload{}, fmt.Errorf("%w: invalid multipart body", app.ErrValidation)
	}
	headers := r.MultipartForm.File[field]
	if len(headers) != 1 {
		return formUpload{}, fmt.Errorf("%w: exactly one %q file is required", app.ErrValidation, field)
	}
	return uploadFromHeader(headers[0])
}

func splitList(values []string) []string {
	res := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				res = append(res, part)
			}
		}
	}
	return res
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request, user domain.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	in := app.SubmitInput{
		Kind:        domain.ContentKind(r.FormValue("kind")),
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Tags:        splitList(r.Form["tags"]),
		Categories:  splitList(r.Form["categories"]),
	}
	var opened []formUpload
	defer func() {
		for _, u := range opened {
			u.close()
		}
	}()
	for _, fh := range r.MultipartForm.File["media"] {
		upload, err := uploadFromHeader(fh)
		if err != nil {
			s.respondError(w, err)
			return
		}
		opened = append(opened, upload)
		in.Media = append(in.Media, upload.Upload)
	}
	if headers := r.MultipartForm.File["thumbnail"]; len(headers) > 0 {
		upload, err := uploadFromHeader(headers[0])
		if err != nil {
			s.respondError(w, err)
			return
		}
		opened = append(opened, upload)
		in.Thumbnail = &upload.Upload
	}
	content, err := s.app.Submit(r.Context(), user, in)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, content)
}

func (s *Server) handleMyContent(w http.ResponseWriter, _ *http.Request, user domain.User) {
	items, err := s.app.MyContent(user)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request, user domain.User) {
	content, err := s.app.GetContent(user, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, content)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := s.app.DeleteContent(r.Context(), user, r.PathValue("id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreamMedia(w http.ResponseWriter, r *http.Request, user domain.User) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid media index")
		return
	}
	rc, size, contentType, err := s.app.OpenMedia(r.Context(), user, r.PathValue("id"), index)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer rc.Close()
	streamObject(w, rc, size, contentType)
}

func (s *Server) handleMediaURL(w http.ResponseWriter, r *http.Request, user domain.User) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid media index")
		return
	}
	url, err := s.app.MediaURL(r.Context(), user, r.PathValue("id"), index)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request, user domain.User) {
	rc, size, contentType, err := s.app.OpenThumbnail(r.Context(), user, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer rc.Close()
	streamObject(w, rc, size, contentType)
}

func streamObject(w http.ResponseWriter, rc io.Reader, size int64, contentType string) {
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	_, _ = io.Copy(w, rc)
}

type commentRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	comment, err := s.app.AddComment(user, r.PathValue("id"), req.Text)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request, user domain.User) {
	comments, err := s.app.Comments(user, r.PathValue("id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": comments, "count": len(comments)})
}

type reportRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req reportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	report, err := s.app.Report(user, r.PathValue("id"), req.Reason)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	page, err := s.app.Feed(
		domain.ContentKind(r.URL.Query().Get("kind")),
		r.URL.Query().Get("category"),
		r.URL.Query().Get("location"),
		queryInt(r, "page", 0),
		queryInt(r, "size", 10),
	)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := s.app.Search(r.URL.Query().Get("q"), queryInt(r, "page", 0), queryInt(r, "size", 10))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	titles, err := s.app.Suggestions(r.URL.Query().Get("q"), queryInt(r, "limit", 10))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": titles})
}
