package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"seoroblog/internal/middleware"
	"seoroblog/internal/render"
	"seoroblog/internal/store"
)

// Backup groups the staff-only backup dashboard and JSON export handlers.
type Backup struct {
	renderer   *render.Renderer
	posts      *store.PostStore
	comments   *store.CommentStore
	categories *store.CategoryStore
	tags       *store.TagStore
}

// NewBackup creates a new Backup handler group.
func NewBackup(
	renderer *render.Renderer,
	posts *store.PostStore,
	comments *store.CommentStore,
	categories *store.CategoryStore,
	tags *store.TagStore,
) *Backup {
	return &Backup{
		renderer:   renderer,
		posts:      posts,
		comments:   comments,
		categories: categories,
		tags:       tags,
	}
}

// Dashboard renders the backup page with record counts. Staff only.
func (h *Backup) Dashboard(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll()
	if err != nil {
		slog.Error("backup post count failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	comments, err := h.comments.ListAll()
	if err != nil {
		slog.Error("backup comment count failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	categories, err := h.categories.ListAll()
	if err != nil {
		slog.Error("backup category count failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	tags, err := h.tags.ListAll()
	if err != nil {
		slog.Error("backup tag count failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.renderer.Page(w, r, "backup", &render.PageData{
		Title:   "Backup",
		Section: "backup",
		Data: map[string]any{
			"PostCount":     len(posts),
			"CommentCount":  len(comments),
			"CategoryCount": len(categories),
			"TagCount":      len(tags),
		},
	})
}

// Export streams a JSON dump of the requested data as a download named
// blog_backup_{type}_{timestamp}.json. type=all bundles everything with
// an exported_at stamp. Staff only.
func (h *Backup) Export(w http.ResponseWriter, r *http.Request) {
	exportType := r.URL.Query().Get("type")
	if exportType == "" {
		exportType = "all"
	}

	var payload any
	var err error
	switch exportType {
	case "posts":
		payload, err = h.posts.ListAll()
	case "comments":
		payload, err = h.comments.ListAll()
	case "categories":
		payload, err = h.categories.ListAll()
	case "tags":
		payload, err = h.tags.ListAll()
	case "all":
		var posts, comments, categories, tags any
		if posts, err = h.posts.ListAll(); err == nil {
			if comments, err = h.comments.ListAll(); err == nil {
				if categories, err = h.categories.ListAll(); err == nil {
					tags, err = h.tags.ListAll()
				}
			}
		}
		payload = map[string]any{
			"posts":       posts,
			"comments":    comments,
			"categories":  categories,
			"tags":        tags,
			"exported_at": time.Now().UTC().Format(time.RFC3339),
		}
	default:
		h.renderer.Error(w, r, http.StatusBadRequest, "Unknown export type.")
		return
	}
	if err != nil {
		sess := middleware.SessionFromCtx(r.Context())
		slog.Error("backup export failed", "error", err, "type", exportType, "user", sess.UserID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Export failed.")
		return
	}

	filename := fmt.Sprintf("blog_backup_%s_%s.json", exportType, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		slog.Error("backup encode failed", "error", err, "type", exportType)
	}
}
