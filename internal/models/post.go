package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing workflow state stored on a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusScheduled PostStatus = "scheduled"
)

// PublicationState classifies a post against a point in time. It is the
// single evaluator behind every public read surface: listings, detail
// pages, category and tag pages, feeds, and the sitemap.
type PublicationState int

const (
	// StateDraft: the post is a draft.
	StateDraft PublicationState = iota
	// StatePublished: the post is published.
	StatePublished
	// StateScheduledPending: scheduled with a publish time still in the
	// future (or not set at all).
	StateScheduledPending
	// StateScheduledDue: scheduled with a publish time at or before now,
	// but not yet flipped to published by the periodic job.
	StateScheduledDue
)

// String returns the state name for logging and templates.
func (s PublicationState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StatePublished:
		return "published"
	case StateScheduledPending:
		return "scheduled-pending"
	case StateScheduledDue:
		return "scheduled-due"
	}
	return "unknown"
}

// Post is a blog article written by a user.
type Post struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Slug            string     `json:"slug"`
	Content         string     `json:"content"`
	Status          PostStatus `json:"status"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	Views           int64      `json:"views"`
	IsPublic        bool       `json:"is_public"`
	MetaDescription string     `json:"meta_description"`
	AuthorID        uuid.UUID  `json:"author_id"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Virtual fields populated by store methods.
	AuthorName   string `json:"author_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Tags         []Tag  `json:"tags,omitempty"`
}

// StateAt classifies the post against the given time. Every post falls
// into exactly one state.
func (p *Post) StateAt(now time.Time) PublicationState {
	switch p.Status {
	case PostStatusPublished:
		return StatePublished
	case PostStatusScheduled:
		if p.PublishedAt != nil && !p.PublishedAt.After(now) {
			return StateScheduledDue
		}
		return StateScheduledPending
	default:
		return StateDraft
	}
}

// VisibleAt reports whether the post is publicly viewable at the given
// time: it must be marked public and be either published or scheduled-due.
// Commenting is permitted under the same condition.
func (p *Post) VisibleAt(now time.Time) bool {
	if !p.IsPublic {
		return false
	}
	state := p.StateAt(now)
	return state == StatePublished || state == StateScheduledDue
}

// ViewableBy reports whether the given user may open the post's detail
// page at the given time. The author always sees their own post.
func (p *Post) ViewableBy(userID *uuid.UUID, now time.Time) bool {
	if userID != nil && *userID == p.AuthorID {
		return true
	}
	return p.VisibleAt(now)
}
