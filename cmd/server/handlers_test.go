package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saunderground/underground/pkg/models"
	"github.com/saunderground/underground/pkg/underground"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()

	mediaDir := t.TempDir()
	cfg := &ServerConfig{
		Port:           0,
		DataDir:        filepath.Join(mediaDir, "data"),
		MediaDir:       mediaDir,
		SiteDir:        "",
		AdminUser:      "admin",
		AdminPass:      "secret",
		AllowedOrigins: []string{"*"},
	}

	service, err := underground.NewService(
		underground.WithDataDir(cfg.DataDir),
		underground.WithMediaDir(cfg.MediaDir),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	sessions := underground.NewSessions(cfg.AdminUser, cfg.AdminPass, time.Hour)
	uploads := underground.NewUploads(cfg.MediaDir)
	server := NewServer(service, sessions, uploads, cfg)
	return server.setupRoutes(), mediaDir
}

// doJSON fires one JSON request at the handler.
func doJSON(t *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

func adminLogin(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/login", loginRequest{Username: "admin", Password: "secret"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Admin login failed: %d %s", rec.Code, rec.Body.String())
	}
	return decode[tokenResponse](t, rec).Token
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/login", loginRequest{Username: "admin", Password: "nope"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	resp := decode[errorResponse](t, rec)
	if resp.OK || resp.Error == "" {
		t.Errorf("Expected {ok:false, error}, got %+v", resp)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	handler, _ := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/artists"},
		{http.MethodPut, "/api/artists/x"},
		{http.MethodDelete, "/api/artists/x"},
		{http.MethodGet, "/api/pending-artists"},
		{http.MethodPost, "/api/pending-artists/x/approve"},
		{http.MethodPost, "/api/pending-artists/x/reject"},
		{http.MethodDelete, "/api/songs/x"},
	}
	for _, p := range paths {
		rec := doJSON(t, handler, p.method, p.path, map[string]any{}, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}

	// a bogus token is the same as none
	rec := doJSON(t, handler, http.MethodGet, "/api/pending-artists", nil, map[string]string{"X-Auth-Token": "bogus"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Bogus token: expected 401, got %d", rec.Code)
	}
}

func TestModerationFlow(t *testing.T) {
	handler, _ := newTestServer(t)
	token := adminLogin(t, handler)
	auth := map[string]string{"X-Auth-Token": token}

	// public submission
	rec := doJSON(t, handler, http.MethodPost, "/api/artists-public",
		map[string]string{"name": "DJ Test", "email": "t@x.com"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Submit failed: %d %s", rec.Code, rec.Body.String())
	}
	submitted := decode[artistResponse](t, rec)
	if submitted.Artist.ID != "dj_test" || submitted.Artist.Status != models.StatusPending {
		t.Fatalf("Unexpected submission %+v", submitted.Artist)
	}

	// not live yet
	rec = doJSON(t, handler, http.MethodGet, "/api/artists", nil, nil)
	if got := decode[[]models.Artist](t, rec); len(got) != 0 {
		t.Fatalf("Roster should be empty before approval, got %+v", got)
	}

	// visible in the queue
	rec = doJSON(t, handler, http.MethodGet, "/api/pending-artists", nil, auth)
	if got := decode[pendingResponse](t, rec); len(got.Artists) != 1 {
		t.Fatalf("Expected one queued artist, got %+v", got.Artists)
	}

	// approve
	rec = doJSON(t, handler, http.MethodPost, "/api/pending-artists/dj_test/approve", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("Approve failed: %d %s", rec.Code, rec.Body.String())
	}
	approved := decode[artistResponse](t, rec)
	if approved.Artist.Status != "" || approved.Artist.SubmittedAt != nil {
		t.Errorf("Approved artist keeps moderation fields: %+v", approved.Artist)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/artists", nil, nil)
	if got := decode[[]models.Artist](t, rec); len(got) != 1 || got[0].ID != "dj_test" {
		t.Fatalf("Expected dj_test live, got %+v", got)
	}

	// re-approve is 404
	rec = doJSON(t, handler, http.MethodPost, "/api/pending-artists/dj_test/approve", nil, auth)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Re-approve: expected 404, got %d", rec.Code)
	}

	// reject path
	doJSON(t, handler, http.MethodPost, "/api/artists-public",
		map[string]string{"name": "MC Gone", "email": "g@x.com"}, nil)
	rec = doJSON(t, handler, http.MethodPost, "/api/pending-artists/mc_gone/reject", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("Reject failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/artists", nil, nil)
	if got := decode[[]models.Artist](t, rec); len(got) != 1 {
		t.Errorf("Rejected artist must not be live, got %+v", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/artists-public", map[string]string{"name": "No Mail"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
}

func TestLikeThrottling(t *testing.T) {
	handler, _ := newTestServer(t)
	token := adminLogin(t, handler)

	doJSON(t, handler, http.MethodPost, "/api/artists-public",
		map[string]string{"name": "DJ Test", "email": "t@x.com"}, nil)
	doJSON(t, handler, http.MethodPost, "/api/pending-artists/dj_test/approve", nil,
		map[string]string{"X-Auth-Token": token})

	ip := map[string]string{"X-Forwarded-For": "9.9.9.9"}
	rec := doJSON(t, handler, http.MethodPost, "/api/artists/dj_test/like", nil, ip)
	if rec.Code != http.StatusOK {
		t.Fatalf("First like failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[likeResponse](t, rec); got.Likes != 1 {
		t.Errorf("Expected 1 like, got %d", got.Likes)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/artists/dj_test/like", nil, ip)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("Second like: expected 429, got %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/artists/dj_test/like", nil,
		map[string]string{"X-Forwarded-For": "8.8.8.8"})
	if got := decode[likeResponse](t, rec); got.Likes != 2 {
		t.Errorf("Different IP should count, got %d", got.Likes)
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/artists/nobody/like", nil, ip)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Like on unknown artist: expected 404, got %d", rec.Code)
	}
}

func TestArtistSelfService(t *testing.T) {
	handler, _ := newTestServer(t)
	token := adminLogin(t, handler)

	doJSON(t, handler, http.MethodPost, "/api/artists-public",
		map[string]string{"name": "DJ Test", "email": "t@x.com"}, nil)
	doJSON(t, handler, http.MethodPost, "/api/pending-artists/dj_test/approve", nil,
		map[string]string{"X-Auth-Token": token})

	// wrong email
	rec := doJSON(t, handler, http.MethodPost, "/api/artist-login",
		artistLoginRequest{ID: "dj_test", Email: "wrong@x.com"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for wrong email, got %d", rec.Code)
	}

	// case-insensitive login
	rec = doJSON(t, handler, http.MethodPost, "/api/artist-login",
		artistLoginRequest{ID: "DJ_TEST", Email: "T@X.COM"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Artist login failed: %d %s", rec.Code, rec.Body.String())
	}
	artistToken := decode[tokenResponse](t, rec).Token
	auth := map[string]string{"X-Artist-Token": artistToken}

	rec = doJSON(t, handler, http.MethodGet, "/api/artist/me", nil, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET me failed: %d", rec.Code)
	}
	if got := decode[artistResponse](t, rec); got.Artist.ID != "dj_test" {
		t.Errorf("Expected own record, got %+v", got.Artist)
	}

	rec = doJSON(t, handler, http.MethodPut, "/api/artist/me",
		map[string]any{"bio": "straight from the underground", "id": "other"}, auth)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT me failed: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[artistResponse](t, rec)
	if updated.Artist.Bio != "straight from the underground" || updated.Artist.ID != "dj_test" {
		t.Errorf("Unexpected merge result %+v", updated.Artist)
	}

	// no token
	rec = doJSON(t, handler, http.MethodGet, "/api/artist/me", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}
}

// multipartBody builds a multipart form with one file part carrying an
// explicit Content-Type, plus optional plain fields.
func multipartBody(t *testing.T, field, filename, mimeType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Writing field %s: %v", k, err)
		}
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("Creating part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Writing part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Closing writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestPublicImageUpload(t *testing.T) {
	handler, mediaDir := newTestServer(t)

	body, contentType := multipartBody(t, "image", "shot.png", "image/png", []byte("png-bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/public-upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed: %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[pathResponse](t, rec)
	if _, err := os.Stat(filepath.Join(mediaDir, filepath.FromSlash(resp.Path))); err != nil {
		t.Errorf("Returned path should resolve to a stored file: %v", err)
	}
}

func TestMusicUploadRejectsWrongMime(t *testing.T) {
	handler, _ := newTestServer(t)

	body, contentType := multipartBody(t, "music", "notes.txt", "text/plain", []byte("not audio"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/public-upload-music", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for wrong MIME, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPublicMusicUploadRegistersSong(t *testing.T) {
	handler, _ := newTestServer(t)
	token := adminLogin(t, handler)

	doJSON(t, handler, http.MethodPost, "/api/artists-public",
		map[string]string{"name": "DJ Test", "email": "t@x.com"}, nil)

	body, contentType := multipartBody(t, "music", "demo.mp3", "audio/mpeg", []byte("mp3-bytes"),
		map[string]string{"artistId": "dj_test", "title": "Demo"})
	req := httptest.NewRequest(http.MethodPost, "/api/public-upload-music", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Upload failed: %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[songResponse](t, rec)
	if resp.Song.Title != "Demo" || resp.Song.Artist != "DJ Test" {
		t.Errorf("Unexpected song record %+v", resp.Song)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/songs", nil, nil)
	songs := decode[[]models.Song](t, rec)
	if len(songs) != 1 || songs[0].ID != resp.Song.ID {
		t.Fatalf("Expected the track in the index, got %+v", songs)
	}

	// admin removes it, file and all
	rec = doJSON(t, handler, http.MethodDelete, "/api/songs/"+resp.Song.ID, nil,
		map[string]string{"X-Auth-Token": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("Delete failed: %d", rec.Code)
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/songs", nil, nil)
	if songs := decode[[]models.Song](t, rec); len(songs) != 0 {
		t.Errorf("Index should be empty after delete, got %+v", songs)
	}
}
