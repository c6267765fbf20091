package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"seoroblog/internal/models"
	"seoroblog/internal/slug"
)

// TagStore handles tag database operations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore creates a new TagStore with the given database connection.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

// Create inserts a new tag in a category. The slug is derived from the
// category slug and the tag name; uniqueness rests on the (category, name)
// constraint rather than slug disambiguation.
func (s *TagStore) Create(categoryID uuid.UUID, categorySlug, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`
		INSERT INTO tags (name, slug, category_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, category_id, created_at
	`, name, slug.ForTag(categorySlug, name), categoryID).Scan(
		&t.ID, &t.Name, &t.Slug, &t.CategoryID, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// GetOrCreate returns the tag with this name in the category, inserting
// it first if it does not exist yet. The post form submits tags as free
// text, so most calls hit an existing row.
func (s *TagStore) GetOrCreate(categoryID uuid.UUID, categorySlug, name string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`
		INSERT INTO tags (name, slug, category_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, slug, category_id, created_at
	`, name, slug.ForTag(categorySlug, name), categoryID).Scan(
		&t.ID, &t.Name, &t.Slug, &t.CategoryID, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get or create tag: %w", err)
	}
	return t, nil
}

// FindBySlug retrieves a tag by its slug. Returns nil if not found.
func (s *TagStore) FindBySlug(tagSlug string) (*models.Tag, error) {
	t := &models.Tag{}
	err := s.db.QueryRow(`
		SELECT id, name, slug, category_id, created_at
		FROM tags WHERE slug = $1
	`, tagSlug).Scan(&t.ID, &t.Name, &t.Slug, &t.CategoryID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// ListByCategory returns all tags in a category ordered by name.
func (s *TagStore) ListByCategory(categoryID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT id, name, slug, category_id, created_at
		FROM tags WHERE category_id = $1 ORDER BY name ASC
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list tags by category: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// ListAll returns every tag, for backup export and the post form.
func (s *TagStore) ListAll() ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT id, name, slug, category_id, created_at
		FROM tags ORDER BY slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all tags: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// ForPost returns the tags attached to a post.
func (s *TagStore) ForPost(postID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, t.category_id, t.created_at
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("tags for post: %w", err)
	}
	defer rows.Close()
	return scanTags(rows)
}

// SetPostTags replaces the tag set attached to a post.
func (s *TagStore) SetPostTags(postID uuid.UUID, tagIDs []uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("set post tags begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, tagID); err != nil {
			return fmt.Errorf("attach tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set post tags commit: %w", err)
	}
	return nil
}

// Delete removes a tag and its post associations.
func (s *TagStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

func scanTags(rows *sql.Rows) ([]models.Tag, error) {
	items := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
