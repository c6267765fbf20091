package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups posts by topic. Every tag belongs to exactly one category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Virtual field populated by store methods.
	PostCount int `json:"post_count"`
}

// Tag labels posts within a category. The (category, name) pair is unique;
// the slug is derived from both and relies on that constraint rather than
// numeric disambiguation.
type Tag struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Slug       string    `json:"slug"`
	CategoryID uuid.UUID `json:"category_id"`
	CreatedAt  time.Time `json:"created_at"`
}
