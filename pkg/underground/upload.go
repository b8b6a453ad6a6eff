package underground

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/saunderground/underground/pkg/utils"
)

// MaxUploadBytes is the upload size ceiling.
const MaxUploadBytes = 10 << 20 // 10 MiB

// Upload field kinds. The kind picks the destination directory and the
// accepted MIME types.
const (
	KindImage = "image"
	KindMusic = "music"
)

// Uploads stores uploaded binaries under the media root. It only writes
// files and hands back relative paths; persisting those paths into
// artist or song records is the caller's job.
type Uploads struct {
	root     string
	maxBytes int64
}

func NewUploads(root string) *Uploads {
	return &Uploads{root: root, maxBytes: MaxUploadBytes}
}

// Store validates the declared MIME type for the field kind, writes the
// payload under a collision-free generated name, and returns the
// relative path. Oversize payloads are rejected with ErrFileTooLarge,
// distinct from the type errors.
func (u *Uploads) Store(kind string, r io.Reader, mimeType, originalName string) (string, error) {
	var subdir string
	switch kind {
	case KindMusic:
		if mimeType != "audio/mpeg" && mimeType != "audio/mp3" {
			return "", fmt.Errorf("%w: not an MP3 file", ErrInvalidFileType)
		}
		subdir = "music"
	case KindImage:
		if !strings.HasPrefix(mimeType, "image/") {
			return "", fmt.Errorf("%w: %s", ErrInvalidFileType, mimeType)
		}
		subdir = "images"
	default:
		return "", fmt.Errorf("%w: unknown field %q", ErrInvalidFileType, kind)
	}

	dir := filepath.Join(u.root, subdir)
	if err := utils.MakeDir(dir); err != nil {
		return "", fmt.Errorf("creating %s dir: %w", subdir, err)
	}

	// original name is discarded except for its extension
	name := fmt.Sprintf("%d-%d%s",
		time.Now().UnixMilli(), rand.IntN(1_000_000_000), filepath.Ext(originalName))
	dst := filepath.Join(dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("saving upload: %w", err)
	}
	if written > u.maxBytes {
		os.Remove(dst)
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, u.maxBytes)
	}

	return path.Join(subdir, name), nil
}
