package feeds

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"seoroblog/internal/models"
)

func testPosts() []models.Post {
	pub := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return []models.Post{
		{
			ID: uuid.New(), Title: "First Post", Content: "hello world",
			MetaDescription: "the first one", AuthorName: "alice",
			PublishedAt: &pub, CreatedAt: pub, UpdatedAt: pub,
		},
		{
			ID: uuid.New(), Title: "Second & Post", Content: strings.Repeat("x", 300),
			AuthorName: "bob", CreatedAt: pub, UpdatedAt: pub,
		},
	}
}

func TestRSS(t *testing.T) {
	b := NewBuilder("https://blog.example.com", "Example Blog", "posts about things")
	posts := testPosts()

	out, err := b.RSS(posts, "", time.Now())
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	doc := string(out)

	if !strings.Contains(doc, "<title>Example Blog</title>") {
		t.Error("missing site title")
	}
	if !strings.Contains(doc, "First Post") {
		t.Error("missing post title")
	}
	if !strings.Contains(doc, "the first one") {
		t.Error("missing meta description as item description")
	}
	// XML metacharacters in titles must be escaped.
	if strings.Contains(doc, "Second & Post") {
		t.Error("unescaped ampersand in output")
	}
	if !strings.Contains(doc, "/posts/"+posts[0].ID.String()) {
		t.Error("missing post link")
	}
}

func TestRSSCategoryTitle(t *testing.T) {
	b := NewBuilder("https://blog.example.com", "Example Blog", "")

	out, err := b.RSS(nil, "Databases", time.Now())
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	if !strings.Contains(string(out), "Example Blog — Databases") {
		t.Error("category feed title missing category name")
	}
}

func TestRSSExcerptFallback(t *testing.T) {
	b := NewBuilder("https://blog.example.com", "Example Blog", "")
	posts := testPosts()

	out, err := b.RSS(posts, "", time.Now())
	if err != nil {
		t.Fatalf("RSS: %v", err)
	}
	// Second post has no meta description; its description is truncated content.
	if !strings.Contains(string(out), strings.Repeat("x", 200)) {
		t.Error("expected truncated content as fallback description")
	}
	if strings.Contains(string(out), strings.Repeat("x", 250)) {
		t.Error("fallback description not truncated")
	}
}

func TestSitemap(t *testing.T) {
	b := NewBuilder("https://blog.example.com", "Example Blog", "")
	posts := testPosts()

	out, err := b.Sitemap(posts)
	if err != nil {
		t.Fatalf("Sitemap: %v", err)
	}
	doc := string(out)

	if !strings.HasPrefix(doc, xmlHeaderPrefix) {
		t.Error("missing XML declaration")
	}
	if !strings.Contains(doc, "http://www.sitemaps.org/schemas/sitemap/0.9") {
		t.Error("missing sitemap namespace")
	}
	if !strings.Contains(doc, "<loc>https://blog.example.com/</loc>") {
		t.Error("missing home page URL")
	}
	if !strings.Contains(doc, "<loc>https://blog.example.com/categories</loc>") {
		t.Error("missing category index URL")
	}
	if !strings.Contains(doc, "/posts/"+posts[0].ID.String()) {
		t.Error("missing post URL")
	}
	if !strings.Contains(doc, "<lastmod>2026-03-10</lastmod>") {
		t.Error("missing lastmod date")
	}
}

const xmlHeaderPrefix = "<?xml"
