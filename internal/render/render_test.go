package render

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"seoroblog/internal/middleware"
	"seoroblog/internal/session"
)

// helperSession returns a session.Data suitable for rendering templates.
func helperSession() *session.Data {
	return &session.Data{
		UserID:   uuid.New(),
		Username: "tester",
	}
}

// helperRequest builds a request whose context carries a session, which
// the base layout inspects for the nav.
func helperRequest(target string, sess *session.Data) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if sess != nil {
		req = req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
	}
	return req
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		devMode bool
	}{
		{"dev mode", true},
		{"prod mode", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rn, err := New(tt.devMode)
			if err != nil {
				t.Fatalf("New(devMode=%v) returned error: %v", tt.devMode, err)
			}
			if len(rn.templates) == 0 {
				t.Fatal("renderer has no parsed templates")
			}

			for _, name := range []string{
				"home", "post_detail", "post_form", "post_delete",
				"categories", "my_posts", "my_comments",
				"user_profile", "profile_form", "login", "signup",
				"backup", "error",
			} {
				if _, ok := rn.templates[name]; !ok {
					t.Errorf("expected template %q to be parsed", name)
				}
			}

			// base.html should NOT appear as a standalone template key.
			if _, ok := rn.templates["base"]; ok {
				t.Error("base.html should not be registered as a separate template")
			}
		})
	}
}

func TestPageDevAssets(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/login", nil), "login", &PageData{Title: "Log in"})

	body := w.Body.String()
	if !strings.Contains(body, "cdn.tailwindcss.com") {
		t.Error("dev mode: expected CDN tailwindcss URL in rendered output")
	}
	if strings.Contains(body, "/static/app.css") {
		t.Error("dev mode: should NOT contain local static asset path")
	}
}

func TestPageProdAssets(t *testing.T) {
	rn, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/login", nil), "login", &PageData{Title: "Log in"})

	body := w.Body.String()
	if strings.Contains(body, "cdn.tailwindcss.com") {
		t.Error("prod mode: should NOT contain CDN tailwindcss URL")
	}
	if !strings.Contains(body, "/static/app.css") {
		t.Error("prod mode: expected local static asset path")
	}
}

func TestPageNavReflectsSession(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Anonymous: login and signup links.
	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/", nil), "home", &PageData{
		Data: map[string]any{"Posts": nil, "TotalPages": 0},
	})
	if !strings.Contains(w.Body.String(), "/signup") {
		t.Error("anonymous nav missing signup link")
	}

	// Authenticated: username and logout.
	w = httptest.NewRecorder()
	rn.Page(w, helperRequest("/", helperSession()), "home", &PageData{
		Data: map[string]any{"Posts": nil, "TotalPages": 0},
	})
	body := w.Body.String()
	if !strings.Contains(body, "tester") {
		t.Error("authenticated nav missing username")
	}
	if !strings.Contains(body, "/logout") {
		t.Error("authenticated nav missing logout")
	}
	// Non-staff must not see the backup link.
	if strings.Contains(body, "/backup") {
		t.Error("non-staff nav must not show backup link")
	}
}

func TestPageStaffNav(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sess := helperSession()
	sess.IsStaff = true

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/", sess), "home", &PageData{
		Data: map[string]any{"Posts": nil, "TotalPages": 0},
	})
	if !strings.Contains(w.Body.String(), "/backup") {
		t.Error("staff nav missing backup link")
	}
}

func TestPageUnknownTemplate(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/", nil), "no-such-template", &PageData{})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", w.Code)
	}
}

func TestErrorPage(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Error(w, helperRequest("/missing", nil), http.StatusNotFound, "post not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "post not found") {
		t.Error("error page missing message")
	}
}

func TestFlashesRendered(t *testing.T) {
	rn, err := New(true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := httptest.NewRecorder()
	rn.Page(w, helperRequest("/", nil), "home", &PageData{
		Data:    map[string]any{"Posts": nil, "TotalPages": 0},
		Flashes: []Flash{{Type: "success", Message: "post created"}},
	})
	if !strings.Contains(w.Body.String(), "post created") {
		t.Error("flash message not rendered")
	}
}

func TestDerefTimeFunc(t *testing.T) {
	rn, _ := New(true)
	fn := rn.funcMap["derefTime"].(func(*time.Time) time.Time)

	if !fn(nil).IsZero() {
		t.Error("derefTime(nil) should be zero time")
	}
	now := time.Now()
	if !fn(&now).Equal(now) {
		t.Error("derefTime should return the pointed-to time")
	}
}
