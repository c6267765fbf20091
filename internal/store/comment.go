package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"seoroblog/internal/models"
)

const commentColumns = `
	cm.id, cm.post_id, cm.author_id, cm.content, cm.is_hidden,
	cm.report_count, cm.created_at, u.username`

// CommentStore handles comment and comment-report database operations.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database
// connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

// ListForPost returns a post's comments oldest first. Hidden comments are
// included only when includeHidden is set (staff view); callers still mark
// them so templates can badge them.
func (s *CommentStore) ListForPost(postID uuid.UUID, includeHidden bool) ([]models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.post_id = $1`
	if !includeHidden {
		query += ` AND NOT cm.is_hidden`
	}
	query += ` ORDER BY cm.created_at ASC`

	rows, err := s.db.Query(query, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}

// Create inserts a new comment on a post.
func (s *CommentStore) Create(postID, authorID uuid.UUID, content string) (*models.Comment, error) {
	c := &models.Comment{}
	err := s.db.QueryRow(`
		INSERT INTO comments (post_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, post_id, author_id, content, is_hidden, report_count, created_at
	`, postID, authorID, content).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsHidden, &c.ReportCount, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// FindByID retrieves a comment by its UUID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	c := &models.Comment{}
	err := s.db.QueryRow(`
		SELECT `+commentColumns+`
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		WHERE cm.id = $1
	`, id).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsHidden,
		&c.ReportCount, &c.CreatedAt, &c.AuthorName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Delete removes a comment. Its reports cascade.
func (s *CommentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

// ListByAuthor returns a user's own comments newest first, joined with the
// title of the post each one belongs to, with the total for pagination.
func (s *CommentStore) ListByAuthor(authorID uuid.UUID, page, perPage int) ([]models.Comment, int, error) {
	var total int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE author_id = $1`, authorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count author comments: %w", err)
	}

	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	rows, err := s.db.Query(`
		SELECT `+commentColumns+`, p.title
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		JOIN posts p ON p.id = cm.post_id
		WHERE cm.author_id = $1
		ORDER BY cm.created_at DESC
		LIMIT $2 OFFSET $3
	`, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list author comments: %w", err)
	}
	defer rows.Close()

	items := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsHidden,
			&c.ReportCount, &c.CreatedAt, &c.AuthorName, &c.PostTitle,
		); err != nil {
			return nil, 0, fmt.Errorf("scan author comment: %w", err)
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

// Report files a report against a comment inside a single transaction:
// it records the report, bumps the comment's report counter, and latches
// is_hidden once the counter reaches hideThreshold. Self-reports return
// ErrSelfReport; a second report from the same user returns
// ErrDuplicateReport and leaves the counter untouched.
func (s *CommentStore) Report(ctx context.Context, commentID, reporterID uuid.UUID, reason models.ReportReason, detail string, hideThreshold int) (*models.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback()

	var authorID uuid.UUID
	err = tx.QueryRow(`SELECT author_id FROM comments WHERE id = $1 FOR UPDATE`, commentID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock comment for report: %w", err)
	}
	if authorID == reporterID {
		return nil, ErrSelfReport
	}

	// The row lock above serializes reports on this comment, so the
	// duplicate check cannot race with a concurrent insert.
	var already bool
	err = tx.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM comment_reports WHERE comment_id = $1 AND reporter_id = $2)
	`, commentID, reporterID).Scan(&already)
	if err != nil {
		return nil, fmt.Errorf("check duplicate report: %w", err)
	}
	if already {
		return nil, ErrDuplicateReport
	}

	_, err = tx.Exec(`
		INSERT INTO comment_reports (comment_id, reporter_id, reason, detail)
		VALUES ($1, $2, $3, $4)
	`, commentID, reporterID, reason, detail)
	if err != nil {
		return nil, fmt.Errorf("insert comment report: %w", err)
	}

	c := &models.Comment{}
	err = tx.QueryRow(`
		UPDATE comments
		SET report_count = report_count + 1,
		    is_hidden = is_hidden OR (report_count + 1 >= $2)
		WHERE id = $1
		RETURNING id, post_id, author_id, content, is_hidden, report_count, created_at
	`, commentID, hideThreshold).Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsHidden, &c.ReportCount, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("bump report count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit report tx: %w", err)
	}
	return c, nil
}

// SetHidden toggles a comment's hidden flag. Staff moderation only.
func (s *CommentStore) SetHidden(id uuid.UUID, hidden bool) error {
	_, err := s.db.Exec(`UPDATE comments SET is_hidden = $2 WHERE id = $1`, id, hidden)
	if err != nil {
		return fmt.Errorf("set comment hidden: %w", err)
	}
	return nil
}

// ListAll returns every comment regardless of visibility, for backup export.
func (s *CommentStore) ListAll() ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT ` + commentColumns + `
		FROM comments cm
		JOIN users u ON u.id = cm.author_id
		ORDER BY cm.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all comments: %w", err)
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows *sql.Rows) ([]models.Comment, error) {
	items := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.IsHidden,
			&c.ReportCount, &c.CreatedAt, &c.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}
