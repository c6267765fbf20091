package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportReason categorizes why a comment was reported.
type ReportReason string

const (
	ReasonSpam    ReportReason = "spam"
	ReasonAbuse   ReportReason = "abuse"
	ReasonSpoiler ReportReason = "spoiler"
	ReasonOther   ReportReason = "other"
)

// ValidReportReason reports whether the given string is a known reason.
func ValidReportReason(s string) bool {
	switch ReportReason(s) {
	case ReasonSpam, ReasonAbuse, ReasonSpoiler, ReasonOther:
		return true
	}
	return false
}

// Comment is a reader's response attached to a post. ReportCount only
// moves through report creation; IsHidden latches to true once the count
// reaches the configured threshold and only a staff toggle can clear it.
type Comment struct {
	ID          uuid.UUID `json:"id"`
	PostID      uuid.UUID `json:"post_id"`
	AuthorID    uuid.UUID `json:"author_id"`
	Content     string    `json:"content"`
	IsHidden    bool      `json:"is_hidden"`
	ReportCount int       `json:"report_count"`
	CreatedAt   time.Time `json:"created_at"`

	// Virtual fields populated by store methods.
	AuthorName string `json:"author_name,omitempty"`
	PostTitle  string `json:"post_title,omitempty"`
}

// CommentReport records a single user's abuse report against a comment.
// The (comment, reporter) pair is unique: one report per user per comment.
type CommentReport struct {
	ID         uuid.UUID    `json:"id"`
	CommentID  uuid.UUID    `json:"comment_id"`
	ReporterID uuid.UUID    `json:"reporter_id"`
	Reason     ReportReason `json:"reason"`
	Detail     string       `json:"detail"`
	CreatedAt  time.Time    `json:"created_at"`
}
