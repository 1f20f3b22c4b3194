package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"clipshare/internal/app"
	"clipshare/pkg/domain"
	"clipshare/pkg/storage"
	"clipshare/pkg/store"
)

type codeRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (c *codeRecorder) SendOneTimeCode(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes[email] = code
	return nil
}

type testServer struct {
	srv    *httptest.Server
	app    *app.App
	codes  *codeRecorder
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	codes := &codeRecorder{codes: make(map[string]string)}
	appCore, err := app.New(app.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Minute,
		Store:          store.NewMemoryStore(),
		Objects:        storage.NewMemoryObjectStore(),
		Notifier:       codes,
	})
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore}).Router())
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, app: appCore, codes: codes, client: srv.Client()}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// signUp walks an account through register and verify, returning the access
// token.
func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    email,
		"username": strings.Split(email, "@")[0],
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	ts.codes.mu.Lock()
	code := ts.codes.codes[email]
	ts.codes.mu.Unlock()
	resp = ts.do(t, http.MethodPost, "/api/auth/verify", "", map[string]string{
		"email": email,
		"code":  code,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", resp.StatusCode)
	}
	var session struct {
		Tokens app.TokenPair `json:"tokens"`
	}
	decodeBody(t, resp, &session)
	return session.Tokens.AccessToken
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	if _, err := ts.app.CreateAdmin("admin@example.com", "admin", "s3cret-pass"); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "s3cret-pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin login status = %d", resp.StatusCode)
	}
	var session struct {
		Tokens app.TokenPair `json:"tokens"`
	}
	decodeBody(t, resp, &session)
	return session.Tokens.AccessToken
}

func (ts *testServer) submitVideo(t *testing.T, token, title string) domain.Content {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("kind", "video")
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("tags", "surf,sunset")
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="media"; filename="clip.mp4"`},
		"Content-Type":        {"video/mp4"},
	})
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("fake video bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, ts.srv.URL+"/api/content", &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.client.Do(req)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("submit status = %d: %s", resp.StatusCode, body)
	}
	var content domain.Content
	decodeBody(t, resp, &content)
	return content
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/auth/me", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without token = %d, want 401", resp.StatusCode)
	}
	resp = ts.do(t, http.MethodGet, "/api/auth/me", "bogus-token", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me with bad token = %d, want 401", resp.StatusCode)
	}
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice@example.com")
	resp := ts.do(t, http.MethodGet, "/api/admin/users", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("admin route for user = %d, want 403", resp.StatusCode)
	}
}

func TestRegisterConflictAndLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice@example.com")

	resp := ts.do(t, http.MethodGet, "/api/auth/me", token, nil)
	var me domain.User
	decodeBody(t, resp, &me)
	if me.Email != "alice@example.com" {
		t.Fatalf("me email = %q", me.Email)
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "alice@example.com",
		"username": "alice2",
		"password": "other",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register = %d, want 409", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login = %d, want 401", resp.StatusCode)
	}
}

func TestRefreshAndLogoutFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "alice@example.com")

	resp := ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret-pass",
	})
	var session struct {
		Tokens app.TokenPair `json:"tokens"`
	}
	decodeBody(t, resp, &session)

	resp = ts.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh = %d, want 200", resp.StatusCode)
	}
	var refreshed struct {
		AccessToken string `json:"accessToken"`
	}
	decodeBody(t, resp, &refreshed)
	if refreshed.AccessToken == "" {
		t.Fatalf("refresh returned no access token")
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/logout", "", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout = %d, want 204", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": session.Tokens.RefreshToken,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout = %d, want 401", resp.StatusCode)
	}
}

func TestSubmitModerateAndFeed(t *testing.T) {
	ts := newTestServer(t)
	userToken := ts.signUp(t, "alice@example.com")
	adminToken := ts.adminToken(t)

	content := ts.submitVideo(t, userToken, "Sunset surfing")
	if content.Status != domain.StatusPending {
		t.Fatalf("submitted status = %q, want pending", content.Status)
	}

	// pending stays out of the public feed
	resp := ts.do(t, http.MethodGet, "/api/feed", "", nil)
	var page domain.ContentPage
	decodeBody(t, resp, &page)
	if page.Total != 0 {
		t.Fatalf("pending content visible in feed")
	}

	resp = ts.do(t, http.MethodGet, "/api/admin/content/pending", adminToken, nil)
	var pending struct {
		Items []domain.Content `json:"items"`
	}
	decodeBody(t, resp, &pending)
	if len(pending.Items) != 1 {
		t.Fatalf("pending queue size = %d, want 1", len(pending.Items))
	}

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/admin/content/%s/approve", content.ID), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	// a second approval conflicts
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/admin/content/%s/approve", content.ID), adminToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("double approve = %d, want 409", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/feed?kind=video", "", nil)
	decodeBody(t, resp, &page)
	if page.Total != 1 {
		t.Fatalf("feed total = %d, want 1", page.Total)
	}

	resp = ts.do(t, http.MethodGet, "/api/search?q=surfing", "", nil)
	decodeBody(t, resp, &page)
	if page.Total != 1 {
		t.Fatalf("search total = %d, want 1", page.Total)
	}

	// interactions
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/content/%s/like", content.ID), userToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("like = %d, want 204", resp.StatusCode)
	}
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/content/%s/comments", content.ID), userToken, map[string]string{"text": "nice"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("comment = %d, want 201", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/content/%s", content.ID), userToken, nil)
	var got domain.Content
	decodeBody(t, resp, &got)
	if got.LikesCount != 1 {
		t.Fatalf("likesCount = %d, want 1", got.LikesCount)
	}
}

func TestStreamMedia(t *testing.T) {
	ts := newTestServer(t)
	token := ts.signUp(t, "alice@example.com")
	content := ts.submitVideo(t, token, "my clip")

	resp := ts.do(t, http.MethodGet, fmt.Sprintf("/api/content/%s/media/0", content.ID), token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q, want video/mp4", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(body) != "fake video bytes" {
		t.Fatalf("streamed bytes = %q", body)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	ts := newTestServer(t)
	userToken := ts.signUp(t, "alice@example.com")
	adminToken := ts.adminToken(t)
	content := ts.submitVideo(t, userToken, "clip")

	resp := ts.do(t, http.MethodPost, fmt.Sprintf("/api/admin/content/%s/reject", content.ID), adminToken, map[string]string{"reason": ""})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("reject without reason = %d, want 400", resp.StatusCode)
	}
	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/admin/content/%s/reject", content.ID), adminToken, map[string]string{"reason": "off topic"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject = %d, want 200", resp.StatusCode)
	}
	var rejected domain.Content
	decodeBody(t, resp, &rejected)
	if rejected.Status != domain.StatusRejected || rejected.RejectionReason != "off topic" {
		t.Fatalf("rejected = %q/%q", rejected.Status, rejected.RejectionReason)
	}
}
