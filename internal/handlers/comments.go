package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"seoroblog/internal/config"
	"seoroblog/internal/middleware"
	"seoroblog/internal/models"
	"seoroblog/internal/render"
	"seoroblog/internal/session"
	"seoroblog/internal/store"
)

// Comments groups the comment and moderation HTTP handlers.
type Comments struct {
	renderer *render.Renderer
	sessions *session.Store
	comments *store.CommentStore
	posts    *store.PostStore
	cfg      *config.Config
}

// NewComments creates a new Comments handler group.
func NewComments(
	renderer *render.Renderer,
	sessions *session.Store,
	comments *store.CommentStore,
	posts *store.PostStore,
	cfg *config.Config,
) *Comments {
	return &Comments{
		renderer: renderer,
		sessions: sessions,
		comments: comments,
		posts:    posts,
		cfg:      cfg,
	}
}

func (h *Comments) flash(r *http.Request, flashType, message string) {
	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		h.sessions.AddFlash(r.Context(), visitor, flashType, message)
	}
}

// Create adds a comment to a post. Commenting follows the post's public
// visibility, so drafts and pending scheduled posts reject comments even
// from their author.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	postID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return
	}
	post, err := h.posts.FindByID(postID)
	if err != nil {
		slog.Error("post lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if post == nil || !post.VisibleAt(time.Now()) {
		h.renderer.Error(w, r, http.StatusNotFound, "Post not found.")
		return
	}

	content := r.FormValue("content")
	if msg := validateComment(content); msg != "" {
		h.flash(r, "error", msg)
		http.Redirect(w, r, "/posts/"+postID.String(), http.StatusSeeOther)
		return
	}

	if _, err := h.comments.Create(postID, sess.UserID, content); err != nil {
		slog.Error("create comment failed", "error", err, "post", postID)
		h.flash(r, "error", "Could not post your comment.")
	}
	http.Redirect(w, r, "/posts/"+postID.String(), http.StatusSeeOther)
}

// Delete removes a comment. Allowed for the comment's author and staff.
func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}
	if comment.AuthorID != sess.UserID && !sess.IsStaff {
		h.renderer.Error(w, r, http.StatusForbidden, "You cannot delete this comment.")
		return
	}

	if err := h.comments.Delete(comment.ID); err != nil {
		slog.Error("delete comment failed", "error", err, "comment", comment.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.flash(r, "success", "Comment deleted.")
	http.Redirect(w, r, redirectTarget(r, "/posts/"+comment.PostID.String()), http.StatusSeeOther)
}

// Report files an abuse report against a comment. Crossing the configured
// report threshold hides the comment automatically.
func (h *Comments) Report(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}

	reason := r.FormValue("reason")
	if !models.ValidReportReason(reason) {
		h.flash(r, "error", "Invalid report reason.")
		http.Redirect(w, r, "/posts/"+comment.PostID.String(), http.StatusSeeOther)
		return
	}
	detail := r.FormValue("detail")

	updated, err := h.comments.Report(
		r.Context(), comment.ID, sess.UserID,
		models.ReportReason(reason), detail, h.cfg.ReportHideThreshold,
	)
	switch {
	case errors.Is(err, store.ErrSelfReport):
		h.flash(r, "error", "You cannot report your own comment.")
	case errors.Is(err, store.ErrDuplicateReport):
		h.flash(r, "warning", "You have already reported this comment.")
	case err != nil:
		slog.Error("report comment failed", "error", err, "comment", comment.ID)
		h.flash(r, "error", "Could not submit your report.")
	case updated == nil:
		h.renderer.Error(w, r, http.StatusNotFound, "Comment not found.")
		return
	default:
		h.flash(r, "success", "Report submitted. Thank you.")
		if updated.IsHidden && !comment.IsHidden {
			slog.Info("comment auto-hidden",
				"comment", updated.ID, "reports", updated.ReportCount)
		}
	}

	http.Redirect(w, r, "/posts/"+comment.PostID.String(), http.StatusSeeOther)
}

// Hide toggles a comment's hidden flag. Staff only; the route is guarded
// by RequireStaff, this is a second check.
func (h *Comments) Hide(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || !sess.IsStaff {
		h.renderer.Error(w, r, http.StatusForbidden, "Staff only.")
		return
	}

	comment, ok := h.loadComment(w, r)
	if !ok {
		return
	}

	hidden := r.FormValue("hidden") == "true"
	if err := h.comments.SetHidden(comment.ID, hidden); err != nil {
		slog.Error("set hidden failed", "error", err, "comment", comment.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	if hidden {
		h.flash(r, "success", "Comment hidden.")
	} else {
		h.flash(r, "success", "Comment restored.")
	}
	http.Redirect(w, r, "/posts/"+comment.PostID.String(), http.StatusSeeOther)
}

// MyComments renders the user's own comment history.
func (h *Comments) MyComments(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	page := pageParam(r)
	comments, total, err := h.comments.ListByAuthor(sess.UserID, page, h.cfg.CommentsPerPage)
	if err != nil {
		slog.Error("list my comments failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	visitor := middleware.VisitorFromCtx(r.Context())
	var flashes []render.Flash
	if visitor != "" {
		for _, f := range h.sessions.PopFlashes(r.Context(), visitor) {
			flashes = append(flashes, render.Flash{Type: f.Type, Message: f.Message})
		}
	}

	h.renderer.Page(w, r, "my_comments", &render.PageData{
		Title:   "My Comments",
		Section: "my-comments",
		Flashes: flashes,
		Data: map[string]any{
			"Comments":   comments,
			"Page":       page,
			"TotalPages": totalPages(total, h.cfg.CommentsPerPage),
		},
	})
}

// loadComment resolves the {id} URL parameter to a comment.
func (h *Comments) loadComment(w http.ResponseWriter, r *http.Request) (*models.Comment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Comment not found.")
		return nil, false
	}
	comment, err := h.comments.FindByID(id)
	if err != nil {
		slog.Error("comment lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return nil, false
	}
	if comment == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "Comment not found.")
		return nil, false
	}
	return comment, true
}

// redirectTarget returns the next URL from the form if it is a local
// path, else the fallback. Keeps delete actions on the page they came from.
func redirectTarget(r *http.Request, fallback string) string {
	next := r.FormValue("next")
	if next != "" && next[0] == '/' && (len(next) == 1 || next[1] != '/') {
		return next
	}
	return fallback
}
