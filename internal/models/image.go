package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload (5 MB).
const MaxImageSize = 5 << 20

// AllowedImageTypes defines the MIME types accepted for post images.
var AllowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// PostImage represents an image uploaded through the editor. Metadata is
// stored in PostgreSQL; the bytes live in the object storage bucket.
type PostImage struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	S3Key       string    `json:"s3_key"`
	AltText     *string   `json:"alt_text,omitempty"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Markdown returns an image reference ready to paste into post content.
func (i *PostImage) Markdown(url string) string {
	alt := i.Filename
	if i.AltText != nil && *i.AltText != "" {
		alt = *i.AltText
	}
	return fmt.Sprintf("![%s](%s)", alt, url)
}

// HumanSize returns a human-readable file size string.
func (i *PostImage) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case i.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(i.SizeBytes)/float64(mb))
	case i.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(i.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", i.SizeBytes)
	}
}
