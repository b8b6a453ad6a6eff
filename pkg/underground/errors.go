package underground

import "fmt"

var (
	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnauthorized       = fmt.Errorf("unauthorized")

	// Input validation errors
	ErrValidation = fmt.Errorf("name and email are required")

	// Lookup errors
	ErrNotFound = fmt.Errorf("not found")

	// Like-throttle errors
	ErrTooManyLikes = fmt.Errorf("already liked recently")

	// Upload errors
	ErrInvalidFileType = fmt.Errorf("invalid file type")
	ErrFileTooLarge    = fmt.Errorf("file too large")
	ErrNoFile          = fmt.Errorf("no file uploaded")
)
