package main

import (
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
)

// portProbeRange is how many successive ports to try when the
// preferred one is busy.
const portProbeRange = 10

// setupRoutes registers all HTTP routes and middleware.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/artist-login", s.handleArtistLogin)

	// Roster
	mux.HandleFunc("GET /api/artists", s.handleListArtists)
	mux.HandleFunc("POST /api/artists", s.requireAdmin(s.handleCreateArtist))
	mux.HandleFunc("PUT /api/artists/{id}", s.requireAdmin(s.handleUpdateArtist))
	mux.HandleFunc("DELETE /api/artists/{id}", s.requireAdmin(s.handleDeleteArtist))
	mux.HandleFunc("POST /api/artists/{id}/like", s.handleLike)

	// Moderation
	mux.HandleFunc("POST /api/artists-public", s.handleSubmit)
	mux.HandleFunc("GET /api/pending-artists", s.requireAdmin(s.handleListPending))
	mux.HandleFunc("POST /api/pending-artists/{id}/approve", s.requireAdmin(s.handleApprove))
	mux.HandleFunc("POST /api/pending-artists/{id}/reject", s.requireAdmin(s.handleReject))

	// Artist self-service
	mux.HandleFunc("GET /api/artist/me", s.requireArtist(s.handleGetMe))
	mux.HandleFunc("PUT /api/artist/me", s.requireArtist(s.handleUpdateMe))
	mux.HandleFunc("POST /api/artist-upload-music", s.requireArtist(s.handleArtistUploadMusic))

	// Uploads
	mux.HandleFunc("POST /api/upload", s.requireAdmin(s.handleAdminUploadImage))
	mux.HandleFunc("POST /api/upload-music", s.requireAdmin(s.handleAdminUploadMusic))
	mux.HandleFunc("POST /api/public-upload-image", s.handlePublicUploadImage)
	mux.HandleFunc("POST /api/public-upload-music", s.handlePublicUploadMusic)

	// Songs
	mux.HandleFunc("GET /api/songs", s.handleListSongs)
	mux.HandleFunc("DELETE /api/songs/{id}", s.requireAdmin(s.handleDeleteSong))

	// Uploaded media and the static site
	mux.Handle("GET /images/", http.StripPrefix("/images/",
		http.FileServer(http.Dir(filepath.Join(s.config.MediaDir, "images")))))
	mux.Handle("GET /music/", http.StripPrefix("/music/",
		http.FileServer(http.Dir(filepath.Join(s.config.MediaDir, "music")))))
	mux.HandleFunc("/", s.handleRoot)

	var handler http.Handler = mux
	handler = s.loggingMiddleware(handler)
	handler = corsMiddleware(s.config.AllowedOrigins)(handler)
	return handler
}

// corsMiddleware adds CORS headers to responses.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-Artist-Token, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs every request with its response status.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.log.Debugf("%s %s from %s -> %d", r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP, trusting X-Forwarded-For and
// X-Real-IP before falling back to the connection address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Start binds the first free port in the probe range and serves until
// the listener dies.
func (s *Server) Start() error {
	handler := s.setupRoutes()

	for port := s.config.Port; port < s.config.Port+portProbeRange; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			s.log.Warnf("port %d busy, trying next", port)
			continue
		}
		s.log.Infof("server running on port %d", port)
		s.log.Infof("open http://localhost:%d in your browser", port)
		return http.Serve(ln, handler)
	}
	return fmt.Errorf("no available ports in %d-%d", s.config.Port, s.config.Port+portProbeRange-1)
}
