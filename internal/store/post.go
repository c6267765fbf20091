package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"seoroblog/internal/models"
	"seoroblog/internal/slug"
)

// visibleWhere returns the SQL predicate for public visibility of a post:
// marked public and either published or scheduled with a due publish time.
// Every public read surface (listing, detail guard, category, tag, related,
// feeds, sitemap) uses this single definition. alias is the posts table
// alias; argPos is the placeholder index bound to the current time.
func visibleWhere(alias string, argPos int) string {
	return fmt.Sprintf(
		"(%[1]s.is_public AND (%[1]s.status = 'published' OR (%[1]s.status = 'scheduled' AND %[1]s.published_at <= $%[2]d)))",
		alias, argPos,
	)
}

// postColumns is the select list shared by post queries, joined with the
// author's username and the category name.
const postColumns = `
	p.id, p.title, p.slug, p.content, p.status, p.published_at, p.views,
	p.is_public, p.meta_description, p.author_id, p.category_id,
	p.created_at, p.updated_at,
	u.username, COALESCE(c.name, '')`

// PostSort selects the ordering of post listings.
type PostSort string

const (
	// SortLatest orders by creation time, newest first. The default.
	SortLatest PostSort = "latest"
	// SortViews orders by view count descending with creation time as
	// the tie-break.
	SortViews PostSort = "views"
)

// ListOptions filters and pages a visible-post listing.
type ListOptions struct {
	Query      string     // case-insensitive substring over title and content
	Sort       PostSort   // SortLatest (default) or SortViews
	CategoryID *uuid.UUID // restrict to a category
	TagID      *uuid.UUID // restrict to posts carrying a tag
	AuthorID   *uuid.UUID // restrict to one author (profile pages)
	Page       int        // 1-based
	PerPage    int
}

// PostStore handles post database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// ListVisible returns publicly viewable posts at the given time, filtered
// and ordered per opts, along with the total match count for pagination.
func (s *PostStore) ListVisible(now time.Time, opts ListOptions) ([]models.Post, int, error) {
	args := []any{now}
	conds := []string{visibleWhere("p", 1)}

	if opts.Query != "" {
		args = append(args, "%"+opts.Query+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", n, n))
	}
	if opts.CategoryID != nil {
		args = append(args, *opts.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}
	if opts.TagID != nil {
		args = append(args, *opts.TagID)
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM post_tags pt WHERE pt.post_id = p.id AND pt.tag_id = $%d)", len(args)))
	}
	if opts.AuthorID != nil {
		args = append(args, *opts.AuthorID)
		conds = append(conds, fmt.Sprintf("p.author_id = $%d", len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts p WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count visible posts: %w", err)
	}

	order := "p.created_at DESC"
	if opts.Sort == SortViews {
		order = "p.views DESC, p.created_at DESC"
	}

	if opts.PerPage <= 0 {
		opts.PerPage = 10
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	args = append(args, opts.PerPage, (opts.Page-1)*opts.PerPage)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, postColumns, where, order, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list visible posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindByID retrieves a post by its UUID, including the author's username
// and category name. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	p := &models.Post{}
	err := s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1
	`, id).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, &p.PublishedAt,
		&p.Views, &p.IsPublic, &p.MetaDescription, &p.AuthorID, &p.CategoryID,
		&p.CreatedAt, &p.UpdatedAt, &p.AuthorName, &p.CategoryName,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// SlugExists reports whether a slug is already taken by a post other than
// excludeID. Pass uuid.Nil to check against all posts.
func (s *PostStore) SlugExists(postSlug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, postSlug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("slug exists: %w", err)
	}
	return exists, nil
}

// Create inserts a new post. If no slug is supplied, one is derived from
// the title with numeric-suffix disambiguation on collision.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	if p.Slug == "" {
		base := slug.Generate(p.Title)
		unique, err := slug.Unique(base, func(candidate string) (bool, error) {
			return s.SlugExists(candidate, uuid.Nil)
		})
		if err != nil {
			return nil, err
		}
		p.Slug = unique
	}

	result := &models.Post{}
	err := s.db.QueryRow(`
		INSERT INTO posts (title, slug, content, status, published_at,
		                   is_public, meta_description, author_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, title, slug, content, status, published_at, views,
		          is_public, meta_description, author_id, category_id,
		          created_at, updated_at
	`, p.Title, p.Slug, p.Content, p.Status, p.PublishedAt,
		p.IsPublic, p.MetaDescription, p.AuthorID, p.CategoryID,
	).Scan(
		&result.ID, &result.Title, &result.Slug, &result.Content, &result.Status,
		&result.PublishedAt, &result.Views, &result.IsPublic, &result.MetaDescription,
		&result.AuthorID, &result.CategoryID, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return result, nil
}

// Update modifies an existing post. The slug is left untouched so
// published URLs stay stable.
func (s *PostStore) Update(p *models.Post) error {
	_, err := s.db.Exec(`
		UPDATE posts SET
			title = $1, content = $2, status = $3, published_at = $4,
			is_public = $5, meta_description = $6, category_id = $7,
			updated_at = NOW()
		WHERE id = $8
	`, p.Title, p.Content, p.Status, p.PublishedAt,
		p.IsPublic, p.MetaDescription, p.CategoryID, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// Delete removes a post. Comments and tag associations cascade.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter by one as a single atomic update,
// so concurrent increments are never lost.
func (s *PostStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Related gathers up to three visible posts sharing the given post's
// category, then fills remaining slots (five total) with visible posts
// sharing any of its tags, excluding the post itself and duplicates.
func (s *PostStore) Related(p *models.Post, now time.Time) ([]models.Post, error) {
	const (
		categorySlots = 3
		totalSlots    = 5
	)

	exclude := []uuid.UUID{p.ID}
	var related []models.Post

	if p.CategoryID != nil {
		byCategory, err := s.relatedQuery(now, exclude, "p.category_id = $3", *p.CategoryID, categorySlots)
		if err != nil {
			return nil, err
		}
		related = append(related, byCategory...)
		for _, r := range byCategory {
			exclude = append(exclude, r.ID)
		}
	}

	if remaining := totalSlots - len(related); remaining > 0 {
		byTag, err := s.relatedQuery(now, exclude,
			"EXISTS (SELECT 1 FROM post_tags pt JOIN post_tags mine ON mine.tag_id = pt.tag_id "+
				"WHERE pt.post_id = p.id AND mine.post_id = $3)", p.ID, remaining)
		if err != nil {
			return nil, err
		}
		related = append(related, byTag...)
	}

	return related, nil
}

// relatedQuery runs one arm of the related-posts selection: visible posts
// matching cond (bound to $3), excluding the given IDs, newest first.
func (s *PostStore) relatedQuery(now time.Time, exclude []uuid.UUID, cond string, condArg any, limit int) ([]models.Post, error) {
	excludeIDs := make([]string, len(exclude))
	for i, id := range exclude {
		excludeIDs[i] = id.String()
	}

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		  AND p.id <> ALL($2::uuid[])
		  AND %s
		ORDER BY p.created_at DESC
		LIMIT $4
	`, postColumns, visibleWhere("p", 1), cond),
		now, excludeIDs, condArg, limit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListByAuthor returns an author's posts, optionally filtered by status,
// newest first, with the total count for pagination.
func (s *PostStore) ListByAuthor(authorID uuid.UUID, status models.PostStatus, page, perPage int) ([]models.Post, int, error) {
	args := []any{authorID}
	where := "p.author_id = $1"
	if status != "" {
		args = append(args, status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts p WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count author posts: %w", err)
	}

	if perPage <= 0 {
		perPage = 10
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, postColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list author posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// StatusCounts returns how many posts the author has in each status.
func (s *PostStore) StatusCounts(authorID uuid.UUID) (map[models.PostStatus]int, error) {
	rows, err := s.db.Query(`
		SELECT status, COUNT(*) FROM posts WHERE author_id = $1 GROUP BY status
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PostStatus]int)
	for rows.Next() {
		var status models.PostStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PublishDue flips every scheduled post whose publish time has arrived to
// published, returning the number of posts transitioned. The filter
// excludes already-published posts, so repeated runs are no-ops.
func (s *PostStore) PublishDue(now time.Time) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE posts SET status = 'published', updated_at = NOW()
		WHERE status = 'scheduled' AND published_at <= $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("publish due posts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("publish due rows affected: %w", err)
	}
	return n, nil
}

// ListAll returns every post regardless of visibility, for backup export.
func (s *PostStore) ListAll() ([]models.Post, error) {
	rows, err := s.db.Query(`
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		LEFT JOIN categories c ON c.id = p.category_id
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list all posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	items := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, &p.PublishedAt,
			&p.Views, &p.IsPublic, &p.MetaDescription, &p.AuthorID, &p.CategoryID,
			&p.CreatedAt, &p.UpdatedAt, &p.AuthorName, &p.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
