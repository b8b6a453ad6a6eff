package main

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/saunderground/underground/pkg/underground"
)

// formFile pulls one uploaded file out of a multipart request.
func (s *Server) formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(underground.MaxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to parse form data: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: field %q", underground.ErrNoFile, field)
	}
	return file, header, nil
}

// storeUpload runs one file through the upload handler and returns the
// stored relative path.
func (s *Server) storeUpload(r *http.Request, kind, field string) (string, *multipart.FileHeader, error) {
	file, header, err := s.formFile(r, field)
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	path, err := s.uploads.Store(kind, file, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		return "", nil, err
	}
	return path, header, nil
}

// titleFallback derives a track title from the upload when the form
// carried none.
func titleFallback(title string, header *multipart.FileHeader) string {
	if title != "" {
		return title
	}
	return strings.TrimSuffix(header.Filename, ".mp3")
}

// handleAdminUploadImage handles POST /api/upload (admin).
func (s *Server) handleAdminUploadImage(w http.ResponseWriter, r *http.Request) {
	s.handleImageUpload(w, r)
}

// handlePublicUploadImage handles POST /api/public-upload-image, used
// during signup before the submitter has any credentials.
func (s *Server) handlePublicUploadImage(w http.ResponseWriter, r *http.Request) {
	s.handleImageUpload(w, r)
}

func (s *Server) handleImageUpload(w http.ResponseWriter, r *http.Request) {
	path, _, err := s.storeUpload(r, underground.KindImage, "image")
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, pathResponse{OK: true, Path: path})
}

// handleAdminUploadMusic handles POST /api/upload-music (admin): store
// the file and register it in the song index.
func (s *Server) handleAdminUploadMusic(w http.ResponseWriter, r *http.Request) {
	path, header, err := s.storeUpload(r, underground.KindMusic, "music")
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	artist := r.FormValue("artist")
	if artist == "" {
		artist = "Unknown Artist"
	}
	song, err := s.service.AddSong(titleFallback(r.FormValue("title"), header), artist, path)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.log.Infof("song added by admin: %s", song.Title)
	s.respondJSON(w, http.StatusOK, songResponse{OK: true, Song: song})
}

// handlePublicUploadMusic handles POST /api/public-upload-music. Signup
// uploads name the track after the submitted profile, which is usually
// still in the pending queue at this point.
func (s *Server) handlePublicUploadMusic(w http.ResponseWriter, r *http.Request) {
	path, header, err := s.storeUpload(r, underground.KindMusic, "music")
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	artistName := r.FormValue("artistId")
	if artist, err := s.service.FindArtist(artistName); err == nil {
		artistName = artist.Name
	}
	if artistName == "" {
		artistName = "Unknown Artist"
	}

	song, err := s.service.AddSong(titleFallback(r.FormValue("title"), header), artistName, path)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, songResponse{OK: true, Song: song})
}

// handleArtistUploadMusic handles POST /api/artist-upload-music. The
// track is tied to the authenticated artist, not to form input.
func (s *Server) handleArtistUploadMusic(w http.ResponseWriter, r *http.Request) {
	artist, err := s.service.GetArtist(requestArtistID(r))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	path, header, err := s.storeUpload(r, underground.KindMusic, "music")
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	song, err := s.service.AddSong(titleFallback(r.FormValue("title"), header), artist.Name, path)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	s.log.Infof("song added by %s: %s", artist.ID, song.Title)
	s.respondJSON(w, http.StatusOK, songResponse{OK: true, Song: song})
}
