// Package feeds builds the RSS feeds and the XML sitemap from visible
// posts. Documents are rendered once and cached by the caller.
package feeds

import (
	"encoding/xml"
	"fmt"
	"time"

	gorilla "github.com/gorilla/feeds"

	"seoroblog/internal/markdown"
	"seoroblog/internal/models"
)

// FeedLimit is how many posts each RSS feed carries.
const FeedLimit = 10

// Builder renders feed documents for the site.
type Builder struct {
	baseURL     string
	title       string
	description string
}

// NewBuilder creates a feed builder. baseURL must not end with a slash.
func NewBuilder(baseURL, title, description string) *Builder {
	return &Builder{baseURL: baseURL, title: title, description: description}
}

// postURL returns the canonical URL for a post.
func (b *Builder) postURL(p *models.Post) string {
	return fmt.Sprintf("%s/posts/%s", b.baseURL, p.ID)
}

// RSS renders an RSS 2.0 document for the given posts. feedTitle overrides
// the site title for category feeds; pass "" for the site-wide feed.
func (b *Builder) RSS(posts []models.Post, feedTitle string, now time.Time) ([]byte, error) {
	title := b.title
	if feedTitle != "" {
		title = fmt.Sprintf("%s — %s", b.title, feedTitle)
	}

	feed := &gorilla.Feed{
		Title:       title,
		Link:        &gorilla.Link{Href: b.baseURL},
		Description: b.description,
		Created:     now,
	}

	for i := range posts {
		p := &posts[i]
		desc := p.MetaDescription
		if desc == "" {
			desc = markdown.Excerpt(p.Content, 200)
		}
		item := &gorilla.Item{
			Title:       p.Title,
			Link:        &gorilla.Link{Href: b.postURL(p)},
			Description: desc,
			Author:      &gorilla.Author{Name: p.AuthorName},
			Id:          b.postURL(p),
			Created:     p.CreatedAt,
		}
		if p.PublishedAt != nil {
			item.Created = *p.PublishedAt
		}
		feed.Items = append(feed.Items, item)
	}

	out, err := feed.ToRss()
	if err != nil {
		return nil, fmt.Errorf("render rss: %w", err)
	}
	return []byte(out), nil
}

// sitemap XML types follow the sitemaps.org 0.9 schema.
type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders the XML sitemap: the home page, the category index, and
// every visible post.
func (b *Builder) Sitemap(posts []models.Post) ([]byte, error) {
	set := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: b.baseURL + "/", ChangeFreq: "daily", Priority: "1.0"},
			{Loc: b.baseURL + "/categories", ChangeFreq: "weekly", Priority: "0.5"},
		},
	}

	for i := range posts {
		p := &posts[i]
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        b.postURL(p),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "monthly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render sitemap: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
