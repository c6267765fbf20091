package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"seoroblog/internal/cache"
	"seoroblog/internal/config"
	"seoroblog/internal/markdown"
	"seoroblog/internal/middleware"
	"seoroblog/internal/models"
	"seoroblog/internal/render"
	"seoroblog/internal/session"
	"seoroblog/internal/store"
)

// Posts groups the post listing, detail, and authoring HTTP handlers.
type Posts struct {
	renderer   *render.Renderer
	sessions   *session.Store
	posts      *store.PostStore
	comments   *store.CommentStore
	categories *store.CategoryStore
	tags       *store.TagStore
	feedCache  *cache.FeedCache // nil when Valkey feeds caching is off
	cfg        *config.Config
}

// NewPosts creates a new Posts handler group.
func NewPosts(
	renderer *render.Renderer,
	sessions *session.Store,
	posts *store.PostStore,
	comments *store.CommentStore,
	categories *store.CategoryStore,
	tags *store.TagStore,
	feedCache *cache.FeedCache,
	cfg *config.Config,
) *Posts {
	return &Posts{
		renderer:   renderer,
		sessions:   sessions,
		posts:      posts,
		comments:   comments,
		categories: categories,
		tags:       tags,
		feedCache:  feedCache,
		cfg:        cfg,
	}
}

// flash queues a one-time message for the current visitor.
func (h *Posts) flash(r *http.Request, flashType, message string) {
	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		h.sessions.AddFlash(r.Context(), visitor, flashType, message)
	}
}

// popFlashes drains queued flash messages for the current visitor.
func (h *Posts) popFlashes(r *http.Request) []render.Flash {
	visitor := middleware.VisitorFromCtx(r.Context())
	if visitor == "" {
		return nil
	}
	var out []render.Flash
	for _, f := range h.sessions.PopFlashes(r.Context(), visitor) {
		out = append(out, render.Flash{Type: f.Type, Message: f.Message})
	}
	return out
}

// invalidateFeeds drops cached feed documents after a post mutation.
func (h *Posts) invalidateFeeds(r *http.Request) {
	if h.feedCache != nil {
		h.feedCache.Invalidate(r.Context())
	}
}

// Home renders the public post listing with search, sort, optional
// category filter, and pagination.
func (h *Posts) Home(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	opts := store.ListOptions{
		Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		Page:    pageParam(r),
		PerPage: h.cfg.PostsPerPage,
	}
	if r.URL.Query().Get("sort") == "views" {
		opts.Sort = store.SortViews
	}

	heading := ""
	if catSlug := r.URL.Query().Get("category"); catSlug != "" {
		cat, err := h.categories.FindBySlug(catSlug)
		if err != nil {
			slog.Error("category lookup failed", "error", err)
			h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
			return
		}
		if cat == nil {
			h.renderer.Error(w, r, http.StatusNotFound, "Category not found.")
			return
		}
		opts.CategoryID = &cat.ID
		heading = cat.Name
	}

	posts, total, err := h.posts.ListVisible(now, opts)
	if err != nil {
		slog.Error("list posts failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	h.attachTags(posts)

	h.renderer.Page(w, r, "home", &render.PageData{
		Title:   heading,
		Section: "home",
		Flashes: h.popFlashes(r),
		Data: map[string]any{
			"Posts":      posts,
			"Heading":    heading,
			"Query":      opts.Query,
			"Sort":       string(opts.Sort),
			"Page":       opts.Page,
			"TotalPages": totalPages(total, opts.PerPage),
		},
	})
}

// ByCategory renders the public listing filtered to one category.
func (h *Posts) ByCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.categories.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if cat == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Category not found.")
		return
	}

	opts := store.ListOptions{
		CategoryID: &cat.ID,
		Page:       pageParam(r),
		PerPage:    h.cfg.PostsPerPage,
	}
	posts, total, err := h.posts.ListVisible(time.Now(), opts)
	if err != nil {
		slog.Error("list posts by category failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	h.attachTags(posts)

	h.renderer.Page(w, r, "home", &render.PageData{
		Title:   cat.Name,
		Section: "home",
		Data: map[string]any{
			"Posts":      posts,
			"Heading":    cat.Name,
			"Page":       opts.Page,
			"TotalPages": totalPages(total, opts.PerPage),
		},
	})
}

// ByTag renders the public listing filtered to one tag.
func (h *Posts) ByTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.tags.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("tag lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if tag == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Tag not found.")
		return
	}

	opts := store.ListOptions{
		TagID:   &tag.ID,
		Page:    pageParam(r),
		PerPage: h.cfg.PostsPerPage,
	}
	posts, total, err := h.posts.ListVisible(time.Now(), opts)
	if err != nil {
		slog.Error("list posts by tag failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	h.attachTags(posts)

	h.renderer.Page(w, r, "home", &render.PageData{
		Title:   "#" + tag.Name,
		Section: "home",
		Data: map[string]any{
			"Posts":      posts,
			"Heading":    "#" + tag.Name,
			"Page":       opts.Page,
			"TotalPages": totalPages(total, opts.PerPage),
		},
	})
}

// Detail renders a post's detail page. Drafts and pending scheduled posts
// are visible to their author only; everyone else is sent back to the
// post list with an error flash.
func (h *Posts) Detail(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	now := time.Now()
	sess := middleware.SessionFromCtx(r.Context())
	var viewerID *uuid.UUID
	if sess != nil {
		viewerID = &sess.UserID
	}
	if !post.ViewableBy(viewerID, now) {
		h.flash(r, "error", "That post is not available.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// Count the view once per browser session, and never for the author.
	isAuthor := sess != nil && sess.UserID == post.AuthorID
	if !isAuthor {
		if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
			if first, err := h.sessions.MarkViewed(r.Context(), visitor, post.ID); err == nil && first {
				if err := h.posts.IncrementViews(post.ID); err != nil {
					slog.Error("increment views failed", "error", err, "post", post.ID)
				} else {
					post.Views++
				}
			}
		}
	}

	contentHTML, err := markdown.ToHTML(post.Content)
	if err != nil {
		slog.Error("markdown render failed", "error", err, "post", post.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	if tags, err := h.tags.ForPost(post.ID); err == nil {
		post.Tags = tags
	}

	includeHidden := sess != nil && sess.IsStaff
	comments, err := h.comments.ListForPost(post.ID, includeHidden)
	if err != nil {
		slog.Error("list comments failed", "error", err, "post", post.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	related, err := h.posts.Related(post, now)
	if err != nil {
		slog.Error("related posts failed", "error", err, "post", post.ID)
		related = nil
	}

	h.renderer.Page(w, r, "post_detail", &render.PageData{
		Title:   post.Title,
		Meta:    post.MetaDescription,
		Flashes: h.popFlashes(r),
		Data: map[string]any{
			"Post":        post,
			"ContentHTML": contentHTML,
			"Comments":    comments,
			"Related":     related,
			"IsAuthor":    isAuthor,
			"CanComment":  post.VisibleAt(now),
		},
	})
}

// NewForm renders the empty post form.
func (h *Posts) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, &models.Post{Status: models.PostStatusDraft, IsPublic: true}, "", false, "")
}

// CreateSubmit processes the new-post form.
func (h *Posts) CreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	post, tagNames, errMsg := h.parseForm(r)
	if errMsg != "" {
		h.renderForm(w, r, post, r.FormValue("tags"), false, errMsg)
		return
	}
	post.AuthorID = sess.UserID

	created, err := h.posts.Create(post)
	if err != nil {
		slog.Error("create post failed", "error", err)
		h.renderForm(w, r, post, r.FormValue("tags"), false, "An unexpected error occurred.")
		return
	}

	if err := h.applyTags(created, tagNames); err != nil {
		slog.Error("apply tags failed", "error", err, "post", created.ID)
	}

	h.invalidateFeeds(r)
	h.flash(r, "success", "Post created.")
	http.Redirect(w, r, "/posts/"+created.ID.String(), http.StatusSeeOther)
}

// EditForm renders the post form pre-filled with an existing post.
// Author only.
func (h *Posts) EditForm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwnPost(w, r)
	if !ok {
		return
	}

	tagNames := ""
	if tags, err := h.tags.ForPost(post.ID); err == nil {
		names := make([]string, len(tags))
		for i, t := range tags {
			names[i] = t.Name
		}
		tagNames = strings.Join(names, ", ")
	}

	h.renderForm(w, r, post, tagNames, true, "")
}

// EditSubmit processes the edit form. Author only.
func (h *Posts) EditSubmit(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadOwnPost(w, r)
	if !ok {
		return
	}

	post, tagNames, errMsg := h.parseForm(r)
	if errMsg != "" {
		post.ID = existing.ID
		h.renderForm(w, r, post, r.FormValue("tags"), true, errMsg)
		return
	}
	post.ID = existing.ID
	post.AuthorID = existing.AuthorID
	post.Slug = existing.Slug

	if err := h.posts.Update(post); err != nil {
		slog.Error("update post failed", "error", err, "post", post.ID)
		h.renderForm(w, r, post, r.FormValue("tags"), true, "An unexpected error occurred.")
		return
	}

	if err := h.applyTags(post, tagNames); err != nil {
		slog.Error("apply tags failed", "error", err, "post", post.ID)
	}

	h.invalidateFeeds(r)
	h.flash(r, "success", "Post updated.")
	http.Redirect(w, r, "/posts/"+post.ID.String(), http.StatusSeeOther)
}

// DeleteConfirm renders the delete confirmation page. Author only.
func (h *Posts) DeleteConfirm(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwnPost(w, r)
	if !ok {
		return
	}
	h.renderer.Page(w, r, "post_delete", &render.PageData{
		Title: "Delete Post",
		Data:  map[string]any{"Post": post},
	})
}

// DeleteSubmit removes the post and its comments. Author only.
func (h *Posts) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadOwnPost(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(post.ID); err != nil {
		slog.Error("delete post failed", "error", err, "post", post.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.invalidateFeeds(r)
	h.flash(r, "success", "Post deleted.")
	http.Redirect(w, r, "/my/posts", http.StatusSeeOther)
}

// MyPosts renders the author dashboard with per-status counts and an
// optional status filter.
func (h *Posts) MyPosts(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	filter := models.PostStatus(r.URL.Query().Get("status"))
	switch filter {
	case "", models.PostStatusDraft, models.PostStatusPublished, models.PostStatusScheduled:
	default:
		filter = ""
	}

	page := pageParam(r)
	posts, total, err := h.posts.ListByAuthor(sess.UserID, filter, page, h.cfg.PostsPerPage)
	if err != nil {
		slog.Error("list my posts failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	counts, err := h.posts.StatusCounts(sess.UserID)
	if err != nil {
		slog.Error("status counts failed", "error", err)
		counts = map[models.PostStatus]int{}
	}
	totalCount := counts[models.PostStatusDraft] +
		counts[models.PostStatusPublished] +
		counts[models.PostStatusScheduled]

	h.renderer.Page(w, r, "my_posts", &render.PageData{
		Title:   "My Posts",
		Section: "my-posts",
		Flashes: h.popFlashes(r),
		Data: map[string]any{
			"Posts":          posts,
			"Filter":         string(filter),
			"Page":           page,
			"TotalPages":     totalPages(total, h.cfg.PostsPerPage),
			"TotalCount":     totalCount,
			"DraftCount":     counts[models.PostStatusDraft],
			"PublishedCount": counts[models.PostStatusPublished],
			"ScheduledCount": counts[models.PostStatusScheduled],
		},
	})
}

// loadPost resolves the {id} URL parameter. Writes the error response and
// returns ok=false when the ID is malformed or the post does not exist.
func (h *Posts) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return nil, false
	}
	post, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("post lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return nil, false
	}
	if post == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return nil, false
	}
	return post, true
}

// loadOwnPost is loadPost plus an author check. Non-authors are sent to
// the post's detail page with a permission-denied flash; no write happens.
func (h *Posts) loadOwnPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return nil, false
	}
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || sess.UserID != post.AuthorID {
		h.flash(r, "error", "Only the author can do that.")
		http.Redirect(w, r, "/posts/"+post.ID.String(), http.StatusSeeOther)
		return nil, false
	}
	return post, true
}

// renderForm renders the post form with categories and prior input.
func (h *Posts) renderForm(w http.ResponseWriter, r *http.Request, post *models.Post, tagNames string, isEdit bool, errMsg string) {
	categories, err := h.categories.ListAll()
	if err != nil {
		slog.Error("list categories failed", "error", err)
	}

	publishedAtValue := ""
	if post.PublishedAt != nil {
		publishedAtValue = post.PublishedAt.Local().Format("2006-01-02T15:04")
	}

	title := "New Post"
	if isEdit {
		title = "Edit Post"
	}
	h.renderer.Page(w, r, "post_form", &render.PageData{
		Title: title,
		Data: map[string]any{
			"Post":             post,
			"Categories":       categories,
			"TagNames":         tagNames,
			"IsEdit":           isEdit,
			"Error":            errMsg,
			"PublishedAtValue": publishedAtValue,
		},
	})
}

// parseForm extracts and validates post fields from the submitted form.
// Returns the partially-populated post either way so the form can be
// re-rendered with prior input.
func (h *Posts) parseForm(r *http.Request) (*models.Post, []string, string) {
	post := &models.Post{
		Title:           strings.TrimSpace(r.FormValue("title")),
		Content:         r.FormValue("content"),
		Status:          models.PostStatus(r.FormValue("status")),
		IsPublic:        r.FormValue("is_public") == "true",
		MetaDescription: strings.TrimSpace(r.FormValue("meta_description")),
	}

	if msg := validatePost(post.Title, post.Content, string(post.Status), post.MetaDescription); msg != "" {
		return post, nil, msg
	}

	if raw := r.FormValue("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return post, nil, "Invalid category."
		}
		post.CategoryID = &id
	}

	if raw := r.FormValue("published_at"); raw != "" {
		t, err := time.ParseInLocation("2006-01-02T15:04", raw, time.Local)
		if err != nil {
			return post, nil, "Invalid publish time."
		}
		post.PublishedAt = &t
	}

	switch post.Status {
	case models.PostStatusScheduled:
		if post.PublishedAt == nil {
			return post, nil, "Scheduled posts need a publish time."
		}
	case models.PostStatusPublished:
		if post.PublishedAt == nil {
			now := time.Now()
			post.PublishedAt = &now
		}
	}

	tagNames, msg := parseTagNames(r.FormValue("tags"))
	if msg != "" {
		return post, nil, msg
	}
	if len(tagNames) > 0 && post.CategoryID == nil {
		return post, nil, "Tags require a category."
	}

	return post, tagNames, ""
}

// applyTags resolves tag names within the post's category and replaces the
// post's tag set.
func (h *Posts) applyTags(post *models.Post, tagNames []string) error {
	if post.CategoryID == nil {
		return h.tags.SetPostTags(post.ID, nil)
	}

	cat, err := h.categories.FindByID(*post.CategoryID)
	if err != nil || cat == nil {
		return err
	}

	ids := make([]uuid.UUID, 0, len(tagNames))
	for _, name := range tagNames {
		tag, err := h.tags.GetOrCreate(cat.ID, cat.Slug, name)
		if err != nil {
			return err
		}
		ids = append(ids, tag.ID)
	}
	return h.tags.SetPostTags(post.ID, ids)
}

// attachTags loads tags for each listed post. Listing pages show tag
// chips, so a missing set is rendered as none rather than failing the page.
func (h *Posts) attachTags(posts []models.Post) {
	for i := range posts {
		if tags, err := h.tags.ForPost(posts[i].ID); err == nil {
			posts[i].Tags = tags
		}
	}
}

// pageParam reads the 1-based page query parameter.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// totalPages converts a row count into a page count.
func totalPages(total, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}
