package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"seoroblog/internal/models"
)

// ImageStore handles post-image metadata database operations. The image
// bytes themselves live in object storage.
type ImageStore struct {
	db *sql.DB
}

// NewImageStore creates a new ImageStore with the given database connection.
func NewImageStore(db *sql.DB) *ImageStore {
	return &ImageStore{db: db}
}

// Create inserts a new image metadata record.
func (s *ImageStore) Create(img *models.PostImage) (*models.PostImage, error) {
	result := &models.PostImage{}
	err := s.db.QueryRow(`
		INSERT INTO post_images (filename, content_type, size_bytes, s3_key, alt_text, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, content_type, size_bytes, s3_key, alt_text, uploaded_by, created_at
	`, img.Filename, img.ContentType, img.SizeBytes, img.S3Key, img.AltText, img.UploadedBy,
	).Scan(
		&result.ID, &result.Filename, &result.ContentType, &result.SizeBytes,
		&result.S3Key, &result.AltText, &result.UploadedBy, &result.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create post image: %w", err)
	}
	return result, nil
}

// FindByID retrieves an image record by its UUID. Returns nil if not found.
func (s *ImageStore) FindByID(id uuid.UUID) (*models.PostImage, error) {
	img := &models.PostImage{}
	err := s.db.QueryRow(`
		SELECT id, filename, content_type, size_bytes, s3_key, alt_text, uploaded_by, created_at
		FROM post_images WHERE id = $1
	`, id).Scan(
		&img.ID, &img.Filename, &img.ContentType, &img.SizeBytes,
		&img.S3Key, &img.AltText, &img.UploadedBy, &img.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post image by id: %w", err)
	}
	return img, nil
}

// ListByUploader returns a user's uploaded images, newest first.
func (s *ImageStore) ListByUploader(userID uuid.UUID) ([]models.PostImage, error) {
	rows, err := s.db.Query(`
		SELECT id, filename, content_type, size_bytes, s3_key, alt_text, uploaded_by, created_at
		FROM post_images WHERE uploaded_by = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list post images: %w", err)
	}
	defer rows.Close()

	items := []models.PostImage{}
	for rows.Next() {
		var img models.PostImage
		if err := rows.Scan(
			&img.ID, &img.Filename, &img.ContentType, &img.SizeBytes,
			&img.S3Key, &img.AltText, &img.UploadedBy, &img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post image: %w", err)
		}
		items = append(items, img)
	}
	return items, rows.Err()
}

// Delete removes an image metadata record.
func (s *ImageStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM post_images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post image: %w", err)
	}
	return nil
}
