package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"seoroblog/internal/render"
	"seoroblog/internal/store"
)

// Categories groups the category browse handlers.
type Categories struct {
	renderer   *render.Renderer
	categories *store.CategoryStore
}

// NewCategories creates a new Categories handler group.
func NewCategories(renderer *render.Renderer, categories *store.CategoryStore) *Categories {
	return &Categories{renderer: renderer, categories: categories}
}

// Index renders every category with its visible-post count.
func (h *Categories) Index(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(time.Now())
	if err != nil {
		slog.Error("list categories failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.renderer.Page(w, r, "categories", &render.PageData{
		Title:   "Categories",
		Section: "categories",
		Data:    map[string]any{"Categories": categories},
	})
}
