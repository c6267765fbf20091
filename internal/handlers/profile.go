package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"seoroblog/internal/middleware"
	"seoroblog/internal/render"
	"seoroblog/internal/session"
	"seoroblog/internal/store"
)

// Profiles groups the public profile and profile-editing handlers.
type Profiles struct {
	renderer *render.Renderer
	sessions *session.Store
	users    *store.UserStore
	profiles *store.ProfileStore
	posts    *store.PostStore
}

// NewProfiles creates a new Profiles handler group.
func NewProfiles(
	renderer *render.Renderer,
	sessions *session.Store,
	users *store.UserStore,
	profiles *store.ProfileStore,
	posts *store.PostStore,
) *Profiles {
	return &Profiles{
		renderer: renderer,
		sessions: sessions,
		users:    users,
		profiles: profiles,
		posts:    posts,
	}
}

// Show renders a user's public profile with their visible posts. The
// profile row is created lazily on first view.
func (h *Profiles) Show(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.FindByUsername(chi.URLParam(r, "username"))
	if err != nil {
		slog.Error("user lookup failed", "error", err)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}
	if user == nil {
		h.renderer.Error(w, r, http.StatusNotFound, "User not found.")
		return
	}

	profile, err := h.profiles.GetOrCreate(user.ID)
	if err != nil {
		slog.Error("profile load failed", "error", err, "user", user.ID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	// Only publicly visible posts appear on a profile, even to the owner;
	// drafts live in /my/posts.
	posts, _, err := h.posts.ListVisible(time.Now(), store.ListOptions{
		AuthorID: &user.ID,
		PerPage:  20,
	})
	if err != nil {
		slog.Error("profile posts failed", "error", err, "user", user.ID)
		posts = nil
	}

	sess := middleware.SessionFromCtx(r.Context())
	isOwner := sess != nil && sess.UserID == user.ID

	h.renderer.Page(w, r, "user_profile", &render.PageData{
		Title: user.Username,
		Meta:  profile.Bio,
		Data: map[string]any{
			"User":    user,
			"Profile": profile,
			"Posts":   posts,
			"IsOwner": isOwner,
		},
	})
}

// EditForm renders the profile form for the signed-in user.
func (h *Profiles) EditForm(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	profile, err := h.profiles.GetOrCreate(sess.UserID)
	if err != nil {
		slog.Error("profile load failed", "error", err, "user", sess.UserID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	h.renderer.Page(w, r, "profile_form", &render.PageData{
		Title: "Edit Profile",
		Data:  map[string]any{"Profile": profile},
	})
}

// EditSubmit saves the profile form.
func (h *Profiles) EditSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	profile, err := h.profiles.GetOrCreate(sess.UserID)
	if err != nil {
		slog.Error("profile load failed", "error", err, "user", sess.UserID)
		h.renderer.Error(w, r, http.StatusInternalServerError, "Something went wrong.")
		return
	}

	profile.Bio = strings.TrimSpace(r.FormValue("bio"))
	profile.Website = strings.TrimSpace(r.FormValue("website"))
	profile.GitHub = strings.TrimSpace(r.FormValue("github"))
	profile.Skills = strings.TrimSpace(r.FormValue("skills"))
	profile.Location = strings.TrimSpace(r.FormValue("location"))
	if avatar := strings.TrimSpace(r.FormValue("avatar_url")); avatar != "" {
		profile.AvatarURL = &avatar
	} else {
		profile.AvatarURL = nil
	}

	if msg := validateProfile(profile.Bio, profile.Website); msg != "" {
		h.renderer.Page(w, r, "profile_form", &render.PageData{
			Title: "Edit Profile",
			Data:  map[string]any{"Profile": profile, "Error": msg},
		})
		return
	}

	if err := h.profiles.Update(profile); err != nil {
		slog.Error("profile update failed", "error", err, "user", sess.UserID)
		h.renderer.Page(w, r, "profile_form", &render.PageData{
			Title: "Edit Profile",
			Data:  map[string]any{"Profile": profile, "Error": "An unexpected error occurred."},
		})
		return
	}

	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		h.sessions.AddFlash(r.Context(), visitor, "success", "Profile saved.")
	}
	http.Redirect(w, r, "/users/"+sess.Username, http.StatusSeeOther)
}
