package lib

import (
	"fmt"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	thumbnailSize = 256
	thumbSuffix   = "_thumb"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// Uploads stores user supplied files in a single directory that is also
// served statically
type Uploads struct {
	Dir string
}

// NewUploads makes sure dir exists
func NewUploads(dir string) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Uploads{Dir: dir}, nil
}

// Path returns the location of an uploaded file on disk
func (u *Uploads) Path(filename string) string {
	return filepath.Join(u.Dir, filepath.Base(filename))
}

// Exists reports whether filename is present in the uploads directory
func (u *Uploads) Exists(filename string) bool {
	if filename == "" {
		return false
	}
	info, err := os.Stat(u.Path(filename))
	return err == nil && !info.IsDir()
}

// Save writes the multipart file under a fresh name that keeps the original
// extension and returns that name
func (u *Uploads) Save(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	filename := uuid.NewString() + ext
	if err := c.SaveFile(fh, u.Path(filename)); err != nil {
		return "", fmt.Errorf("save upload %q: %w", fh.Filename, err)
	}
	return filename, nil
}

// SaveImage stores an image upload and a square thumbnail next to it,
// returning the thumbnail name
func (u *Uploads) SaveImage(c *fiber.Ctx, fh *multipart.FileHeader) (string, error) {
	if !imageExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return "", Validation("profile picture must be a jpg, png or gif image")
	}

	original, err := u.Save(c, fh)
	if err != nil {
		return "", err
	}

	thumb, err := u.Thumbnail(original)
	if err != nil {
		_ = os.Remove(u.Path(original))
		return "", Validation("uploaded file is not a readable image")
	}
	return thumb, nil
}

// Remove deletes an uploaded file. For a thumbnail written by SaveImage the
// original image goes too.
func (u *Uploads) Remove(filename string) {
	if filename == "" {
		return
	}
	_ = os.Remove(u.Path(filename))

	ext := filepath.Ext(filename)
	if base, ok := strings.CutSuffix(strings.TrimSuffix(filename, ext), thumbSuffix); ok {
		_ = os.Remove(u.Path(base + ext))
	}
}

// Thumbnail writes a thumbnailSize square crop of an uploaded image and
// returns its file name
func (u *Uploads) Thumbnail(filename string) (string, error) {
	img, err := imaging.Open(u.Path(filename), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open image %q: %w", filename, err)
	}

	ext := filepath.Ext(filename)
	thumbName := strings.TrimSuffix(filename, ext) + thumbSuffix + ext
	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, u.Path(thumbName)); err != nil {
		return "", fmt.Errorf("save thumbnail %q: %w", thumbName, err)
	}
	return thumbName, nil
}

// MediaKind returns the subtype of the upload's content type, e.g. "png"
// for image/png, or "" when it is unknown
func MediaKind(fh *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	_, subtype, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}
	return subtype
}
