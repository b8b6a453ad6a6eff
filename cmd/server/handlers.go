package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/saunderground/underground/pkg/logger"
	"github.com/saunderground/underground/pkg/models"
	"github.com/saunderground/underground/pkg/underground"
	"github.com/saunderground/underground/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies.
type Server struct {
	service  underground.Service
	sessions *underground.Sessions
	uploads  *underground.Uploads
	config   *ServerConfig
	log      *log.Logger
}

// NewServer creates a new server instance.
func NewServer(service underground.Service, sessions *underground.Sessions, uploads *underground.Uploads, config *ServerConfig) *Server {
	return &Server{
		service:  service,
		sessions: sessions,
		uploads:  uploads,
		config:   config,
		log:      logger.GetLogger(),
	}
}

// respondJSON writes a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes the standard {ok:false, error:...} envelope.
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, errorResponse{OK: false, Error: message})
}

// respondServiceError maps service errors onto the HTTP taxonomy:
// validation 400, bad credentials 401, unknown id 404, like throttle
// 429, upload problems 400, anything else 500.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, underground.ErrValidation):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, underground.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, underground.ErrUnauthorized):
		s.respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, underground.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, underground.ErrTooManyLikes):
		s.respondError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, underground.ErrInvalidFileType),
		errors.Is(err, underground.ErrFileTooLarge),
		errors.Is(err, underground.ErrNoFile):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Errorf("internal error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

type contextKey string

const artistIDKey contextKey = "artistID"

// adminToken pulls the admin token from the X-Auth-Token header or the
// token query parameter.
func adminToken(r *http.Request) string {
	if token := r.Header.Get("X-Auth-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

func artistToken(r *http.Request) string {
	if token := r.Header.Get("X-Artist-Token"); token != "" {
		return token
	}
	return r.URL.Query().Get("artist_token")
}

// requireAdmin gates a handler behind a valid admin session.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.sessions.ValidateAdmin(adminToken(r)) {
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// requireArtist gates a handler behind a valid artist session and puts
// the resolved artist id on the request context.
func (s *Server) requireArtist(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		artistID, ok := s.sessions.ValidateArtist(artistToken(r))
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), artistIDKey, artistID)
		next(w, r.WithContext(ctx))
	}
}

func requestArtistID(r *http.Request) string {
	id, _ := r.Context().Value(artistIDKey).(string)
	return id
}

// handleLogin handles POST /api/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	token, err := s.sessions.Login(req.Username, req.Password)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, tokenResponse{OK: true, Token: token})
}

// handleArtistLogin handles POST /api/artist-login.
func (s *Server) handleArtistLogin(w http.ResponseWriter, r *http.Request) {
	var req artistLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	artist, err := s.service.FindArtistByLogin(req.ID, req.Email)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	token := s.sessions.IssueArtist(artist.ID)
	s.respondJSON(w, http.StatusOK, tokenResponse{OK: true, Token: token})
}

// handleListArtists handles GET /api/artists. The roster is public and
// returned as a bare array, which the site's scripts rely on.
func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	artists, err := s.service.ListArtists()
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artists)
}

// handleCreateArtist handles POST /api/artists (admin).
func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	var artist models.Artist
	if err := json.NewDecoder(r.Body).Decode(&artist); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := s.service.CreateArtist(artist)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: created})
}

// handleUpdateArtist handles PUT /api/artists/{id} (admin).
func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.service.UpdateArtist(r.PathValue("id"), patch)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: updated})
}

// handleDeleteArtist handles DELETE /api/artists/{id} (admin).
func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
	removed, err := s.service.DeleteArtist(r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, removedResponse{OK: true, Removed: removed})
}

// handleSubmit handles POST /api/artists-public, the public signup
// path. The record lands in the pending queue, not the roster.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var artist models.Artist
	if err := json.NewDecoder(r.Body).Decode(&artist); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	submitted, err := s.service.Submit(artist)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: submitted})
}

// handleListPending handles GET /api/pending-artists (admin).
func (s *Server) handleListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := s.service.ListPending()
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, pendingResponse{OK: true, Artists: pending})
}

// handleApprove handles POST /api/pending-artists/{id}/approve (admin).
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	artist, err := s.service.Approve(r.PathValue("id"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: artist})
}

// handleReject handles POST /api/pending-artists/{id}/reject (admin).
func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reject(r.PathValue("id")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleGetMe handles GET /api/artist/me.
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	artist, err := s.service.GetArtist(requestArtistID(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: artist})
}

// handleUpdateMe handles PUT /api/artist/me. The body is shallow-merged
// over the stored record; the id and moderation fields cannot change.
func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.service.UpdateSelf(requestArtistID(r), patch)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, artistResponse{OK: true, Artist: updated})
}

// handleLike handles POST /api/artists/{id}/like. One like per IP per
// artist per window; repeats get a 429 and the counter stays put.
func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	likes, err := s.service.Like(r.PathValue("id"), getClientIP(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, likeResponse{OK: true, Likes: likes})
}

// handleListSongs handles GET /api/songs as a bare array, filtered to
// tracks whose file still exists.
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.service.ListSongs()
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, songs)
}

// handleDeleteSong handles DELETE /api/songs/{id} (admin).
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteSong(r.PathValue("id")); err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, okResponse{OK: true})
}

// handleRoot serves the static site with an index.html fallback for
// client-side routing. Without a site directory it answers with a small
// service descriptor, and unknown /api paths get a JSON 404.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}

	if s.config.SiteDir != "" {
		file := filepath.Join(s.config.SiteDir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if utils.FileExists(file) {
			http.ServeFile(w, r, file)
			return
		}
		index := filepath.Join(s.config.SiteDir, "index.html")
		if utils.FileExists(index) {
			http.ServeFile(w, r, index)
			return
		}
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "SA Underground API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"login":        "POST /api/login",
			"artists":      "GET /api/artists",
			"signup":       "POST /api/artists-public",
			"pending":      "GET /api/pending-artists",
			"artistLogin":  "POST /api/artist-login",
			"me":           "GET /api/artist/me",
			"songs":        "GET /api/songs",
			"like":         "POST /api/artists/{id}/like",
			"uploadImage":  "POST /api/public-upload-image",
			"uploadMusic":  "POST /api/public-upload-music",
		},
	})
}
