package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"seoroblog/internal/cache"
	"seoroblog/internal/feeds"
	"seoroblog/internal/store"
)

// Feeds serves the RSS feeds and the XML sitemap. Rendered documents are
// cached in Valkey so post-heavy sites rebuild them at most once per TTL.
type Feeds struct {
	builder    *feeds.Builder
	posts      *store.PostStore
	categories *store.CategoryStore
	feedCache  *cache.FeedCache // nil disables caching
}

// NewFeeds creates a new Feeds handler group.
func NewFeeds(builder *feeds.Builder, posts *store.PostStore, categories *store.CategoryStore, feedCache *cache.FeedCache) *Feeds {
	return &Feeds{builder: builder, posts: posts, categories: categories, feedCache: feedCache}
}

// SiteRSS serves the site-wide RSS feed of the latest visible posts.
func (h *Feeds) SiteRSS(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "rss", func(now time.Time) ([]byte, error) {
		posts, _, err := h.posts.ListVisible(now, store.ListOptions{PerPage: feeds.FeedLimit})
		if err != nil {
			return nil, err
		}
		return h.builder.RSS(posts, "", now)
	}, "application/rss+xml; charset=utf-8")
}

// CategoryRSS serves the RSS feed for one category.
func (h *Feeds) CategoryRSS(w http.ResponseWriter, r *http.Request) {
	cat, err := h.categories.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("category lookup failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if cat == nil {
		http.NotFound(w, r)
		return
	}

	h.serveCached(w, r, "rss:"+cat.Slug, func(now time.Time) ([]byte, error) {
		posts, _, err := h.posts.ListVisible(now, store.ListOptions{
			CategoryID: &cat.ID,
			PerPage:    feeds.FeedLimit,
		})
		if err != nil {
			return nil, err
		}
		return h.builder.RSS(posts, cat.Name, now)
	}, "application/rss+xml; charset=utf-8")
}

// Sitemap serves the XML sitemap of every visible post.
func (h *Feeds) Sitemap(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, "sitemap", func(now time.Time) ([]byte, error) {
		// The sitemap lists everything visible, not just the feed window.
		posts, _, err := h.posts.ListVisible(now, store.ListOptions{PerPage: 50_000})
		if err != nil {
			return nil, err
		}
		return h.builder.Sitemap(posts)
	}, "application/xml; charset=utf-8")
}

// serveCached renders a feed document through the cache.
func (h *Feeds) serveCached(w http.ResponseWriter, r *http.Request, key string, build func(time.Time) ([]byte, error), contentType string) {
	ctx := r.Context()

	if h.feedCache != nil {
		if doc, ok := h.feedCache.Get(ctx, key); ok {
			w.Header().Set("Content-Type", contentType)
			w.Write(doc)
			return
		}
	}

	doc, err := build(time.Now())
	if err != nil {
		slog.Error("feed build failed", "key", key, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if h.feedCache != nil {
		h.feedCache.Set(ctx, key, doc)
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(doc)
}
