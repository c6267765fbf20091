// Package router sets up all HTTP routes and middleware chains for the
// blog. Routes are organized into public, authenticated, and staff
// groups with appropriate middleware stacks.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"seoroblog/internal/handlers"
	"seoroblog/internal/middleware"
	"seoroblog/internal/session"
	"seoroblog/web"
)

// Deps bundles the handler groups and middleware dependencies the router
// wires together.
type Deps struct {
	Sessions    *session.Store
	Auth        *handlers.Auth
	Posts       *handlers.Posts
	Comments    *handlers.Comments
	Categories  *handlers.Categories
	Profiles    *handlers.Profiles
	Upload      *handlers.Upload
	Feeds       *handlers.Feeds
	Backup      *handlers.Backup
	AuthLimit   *middleware.RateLimiter // login/signup attempts per IP
	ReportLimit *middleware.RateLimiter // comment/report submissions per IP
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.LoadSession(d.Sessions))

	// Health check — no auth, no CSRF.
	r.Get("/health", healthHandler)

	// Feeds and sitemap — read-only XML, no CSRF.
	r.Get("/feed.xml", d.Feeds.SiteRSS)
	r.Get("/categories/{slug}/feed.xml", d.Feeds.CategoryRSS)
	r.Get("/sitemap.xml", d.Feeds.Sitemap)

	// Static assets. The embedded FS already carries the static/ prefix,
	// so the URL path maps onto it directly.
	r.Handle("/static/*", http.FileServer(http.FS(web.StaticFS)))

	// HTML routes — CSRF-protected.
	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Public pages.
		r.Get("/", d.Posts.Home)
		r.Get("/posts/{id}", d.Posts.Detail)
		r.Get("/categories", d.Categories.Index)
		r.Get("/categories/{slug}", d.Posts.ByCategory)
		r.Get("/tags/{slug}", d.Posts.ByTag)
		r.Get("/users/{username}", d.Profiles.Show)

		// Auth pages — rate limited against credential stuffing.
		r.Group(func(r chi.Router) {
			r.Use(d.AuthLimit.Middleware)
			r.Get("/signup", d.Auth.SignupPage)
			r.Post("/signup", d.Auth.SignupSubmit)
			r.Get("/login", d.Auth.LoginPage)
			r.Post("/login", d.Auth.LoginSubmit)
		})
		r.Post("/logout", d.Auth.Logout)

		// Authenticated area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/posts/new", d.Posts.NewForm)
			r.Post("/posts/new", d.Posts.CreateSubmit)
			r.Get("/posts/{id}/edit", d.Posts.EditForm)
			r.Post("/posts/{id}/edit", d.Posts.EditSubmit)
			r.Get("/posts/{id}/delete", d.Posts.DeleteConfirm)
			r.Post("/posts/{id}/delete", d.Posts.DeleteSubmit)

			r.Get("/my/posts", d.Posts.MyPosts)
			r.Get("/my/comments", d.Comments.MyComments)

			r.Get("/profile/edit", d.Profiles.EditForm)
			r.Post("/profile/edit", d.Profiles.EditSubmit)

			r.Post("/upload/image", d.Upload.Image)

			// Comment writes — rate limited against spam floods.
			r.Group(func(r chi.Router) {
				r.Use(d.ReportLimit.Middleware)
				r.Post("/posts/{id}/comments", d.Comments.Create)
				r.Post("/comments/{id}/report", d.Comments.Report)
			})
			r.Post("/comments/{id}/delete", d.Comments.Delete)

			// Staff area.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireStaff(d.Sessions))
				r.Post("/comments/{id}/hide", d.Comments.Hide)
				r.Get("/backup", d.Backup.Dashboard)
				r.Get("/backup/export", d.Backup.Export)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
