// Package models defines the data structures that map to database tables
// and provides the core types used throughout the application.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Staff users can moderate comments
// and export backups.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize the hash
	IsStaff      bool      `json:"is_staff"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile holds public-facing details for a user. It is created lazily
// the first time a user's profile is accessed.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Bio       string    `json:"bio"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Website   string    `json:"website"`
	GitHub    string    `json:"github"`
	Skills    string    `json:"skills"` // comma-separated list
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SkillList splits the comma-separated skills field into trimmed entries.
func (p *Profile) SkillList() []string {
	var out []string
	for _, s := range strings.Split(p.Skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
