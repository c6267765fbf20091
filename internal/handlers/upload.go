package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"seoroblog/internal/middleware"
	"seoroblog/internal/models"
	"seoroblog/internal/storage"
	"seoroblog/internal/store"
)

// Upload handles editor image uploads: bytes to object storage, metadata
// to PostgreSQL, and a JSON response carrying the URL and ready-to-paste
// markdown.
type Upload struct {
	storageClient *storage.Client // nil when object storage is not configured
	images        *store.ImageStore
}

// NewUpload creates a new Upload handler group.
func NewUpload(storageClient *storage.Client, images *store.ImageStore) *Upload {
	return &Upload{storageClient: storageClient, images: images}
}

// Image handles POST /upload/image. Responses are JSON either way:
// {"success": true, "url": ..., "id": ..., "markdown": ...} or {"error": ...}.
func (h *Upload) Image(w http.ResponseWriter, r *http.Request) {
	if h.storageClient == nil {
		writeUploadError(w, "Image upload is not configured.", http.StatusServiceUnavailable)
		return
	}

	sess := middleware.SessionFromCtx(r.Context())

	// Limit request body to the max image size plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, models.MaxImageSize+1024)
	if err := r.ParseMultipartForm(models.MaxImageSize); err != nil {
		writeUploadError(w, "File too large. Maximum size is 5 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeUploadError(w, "No file provided.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > models.MaxImageSize {
		writeUploadError(w, "File too large. Maximum size is 5 MB.", http.StatusRequestEntityTooLarge)
		return
	}

	// Detect the content type by sniffing, never by trusting the client.
	sniffBuf := make([]byte, 512)
	n, err := file.Read(sniffBuf)
	if err != nil && err != io.EOF {
		writeUploadError(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}
	contentType := http.DetectContentType(sniffBuf[:n])
	if !models.AllowedImageTypes[contentType] {
		writeUploadError(w, fmt.Sprintf("File type %q is not allowed.", contentType), http.StatusBadRequest)
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeUploadError(w, "Failed to process file.", http.StatusInternalServerError)
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeUploadError(w, "Failed to read file.", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	ext := filepath.Ext(header.Filename)
	if ext == "" {
		ext = extensionFromType(contentType)
	}
	fileID := uuid.New().String()
	s3Key := fmt.Sprintf("images/%d/%02d/%s%s", now.Year(), now.Month(), fileID, ext)

	ctx := r.Context()
	if err := h.storageClient.Upload(ctx, s3Key, contentType, bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
		slog.Error("s3 upload failed", "error", err, "key", s3Key)
		writeUploadError(w, "Failed to upload file.", http.StatusInternalServerError)
		return
	}

	img := &models.PostImage{
		Filename:    header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(fileBytes)),
		S3Key:       s3Key,
		UploadedBy:  sess.UserID,
	}
	if alt := r.FormValue("alt_text"); alt != "" {
		img.AltText = &alt
	}

	created, err := h.images.Create(img)
	if err != nil {
		slog.Error("image db insert failed", "error", err, "key", s3Key)
		// Best-effort cleanup of the orphaned object.
		if delErr := h.storageClient.Delete(ctx, s3Key); delErr != nil {
			slog.Warn("orphan cleanup failed", "error", delErr, "key", s3Key)
		}
		writeUploadError(w, "Failed to save file metadata.", http.StatusInternalServerError)
		return
	}

	url := h.storageClient.FileURL(created.S3Key)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"id":       created.ID,
		"url":      url,
		"markdown": created.Markdown(url),
		"size":     created.HumanSize(),
	})
}

// writeUploadError sends a JSON error response.
func writeUploadError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": message})
}

// extensionFromType maps a detected MIME type to a file extension.
func extensionFromType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ""
}
