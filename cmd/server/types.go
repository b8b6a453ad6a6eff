package main

import (
	"fmt"

	"github.com/saunderground/underground/pkg/models"
)

// loginRequest is the body of POST /api/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *loginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

// artistLoginRequest is the body of POST /api/artist-login. Artists log
// in with their id and the email they signed up with.
type artistLoginRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *artistLoginRequest) Validate() error {
	if r.ID == "" || r.Email == "" {
		return fmt.Errorf("id and email are required")
	}
	return nil
}

// okResponse is the bare success envelope.
type okResponse struct {
	OK bool `json:"ok"`
}

// errorResponse is the standard error envelope, {ok:false, error:msg}.
type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type tokenResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

type artistResponse struct {
	OK     bool           `json:"ok"`
	Artist *models.Artist `json:"artist"`
}

type removedResponse struct {
	OK      bool           `json:"ok"`
	Removed *models.Artist `json:"removed"`
}

type pendingResponse struct {
	OK      bool            `json:"ok"`
	Artists []models.Artist `json:"artists"`
}

type likeResponse struct {
	OK    bool `json:"ok"`
	Likes int  `json:"likes"`
}

type pathResponse struct {
	OK   bool   `json:"ok"`
	Path string `json:"path"`
}

type songResponse struct {
	OK   bool         `json:"ok"`
	Song *models.Song `json:"song"`
}
