package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"seoroblog/internal/middleware"
	"seoroblog/internal/render"
	"seoroblog/internal/session"
	"seoroblog/internal/store"
)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	users    *store.UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, users *store.UserStore) *Auth {
	return &Auth{renderer: renderer, sessions: sessions, users: users}
}

// SignupPage renders the registration form.
func (a *Auth) SignupPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "signup", &render.PageData{
		Title: "Sign up",
		Data:  map[string]any{},
	})
}

// SignupSubmit processes the registration form. On success the user is
// logged in immediately.
func (a *Auth) SignupSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirm := r.FormValue("password_confirm")

	fail := func(msg string) {
		a.renderer.Page(w, r, "signup", &render.PageData{
			Title: "Sign up",
			Data:  map[string]any{"Error": msg, "Username": username, "Email": email},
		})
	}

	if msg := validateSignup(username, email, password, confirm); msg != "" {
		fail(msg)
		return
	}

	user, err := a.users.Create(username, email, password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			fail("That username is already taken.")
		case errors.Is(err, store.ErrEmailTaken):
			fail("An account with that email already exists.")
		default:
			slog.Error("signup failed", "error", err)
			fail("An unexpected error occurred.")
		}
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if visitor := middleware.VisitorFromCtx(r.Context()); visitor != "" {
		a.sessions.AddFlash(r.Context(), visitor, "success", "Welcome to the blog, "+user.Username+"!")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Log in",
		Data:  map[string]any{},
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	fail := func(msg string) {
		a.renderer.Page(w, r, "login", &render.PageData{
			Title: "Log in",
			Data:  map[string]any{"Error": msg, "Email": email},
		})
	}

	user, err := a.users.FindByEmail(email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		fail("An unexpected error occurred.")
		return
	}
	if user == nil || !a.users.CheckPassword(user, password) {
		fail("Invalid email or password.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:   user.ID,
		Username: user.Username,
		IsStaff:  user.IsStaff,
	}); err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session and returns to the home page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	a.sessions.Destroy(r.Context(), w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
