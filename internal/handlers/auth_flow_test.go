// auth_flow_test.go contains handler integration tests for the Auth handler
// methods: SignupPage, SignupSubmit, LoginPage, LoginSubmit, and Logout.
// Tests exercise real database and Valkey connections; they are skipped
// when those services are unavailable.
package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestSignupPage_ReturnsHTML(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	rec := httptest.NewRecorder()

	env.AuthH.SignupPage(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
}

func TestSignupPage_AuthenticatedRedirectsHome(t *testing.T) {
	env := newTestEnv(t)
	user := env.testUser(t, false)

	req := httptest.NewRequest(http.MethodGet, "/signup", nil)
	req = req.WithContext(ctxWithSession(req.Context(), testSessionData(user)))
	rec := httptest.NewRecorder()

	env.AuthH.SignupPage(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}

func TestSignupSubmit_CreatesUserAndSession(t *testing.T) {
	env := newTestEnv(t)

	tag := uuid.NewString()[:8]
	username := "newbie-" + tag
	form := url.Values{}
	form.Set("username", username)
	form.Set("email", fmt.Sprintf("newbie-%s@example.com", tag))
	form.Set("password", "a-decent-password")
	form.Set("password_confirm", "a-decent-password")

	rec := httptest.NewRecorder()
	env.AuthH.SignupSubmit(rec, postForm("/signup", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d, body: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}

	user, err := env.Users.FindByUsername(username)
	if err != nil || user == nil {
		t.Fatalf("expected user %q to exist after signup: %v", username, err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sb_session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected sb_session cookie to be set after signup")
	}
}

func TestSignupSubmit_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("username", "mismatch-user")
	form.Set("email", "mismatch@example.com")
	form.Set("password", "a-decent-password")
	form.Set("password_confirm", "a-different-password")

	rec := httptest.NewRecorder()
	env.AuthH.SignupSubmit(rec, postForm("/signup", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if user, _ := env.Users.FindByUsername("mismatch-user"); user != nil {
		env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
		t.Error("user should not be created when passwords do not match")
	}
}

func TestSignupSubmit_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	existing := env.testUser(t, false)

	form := url.Values{}
	form.Set("username", existing.Username)
	form.Set("email", "someone-else@example.com")
	form.Set("password", "a-decent-password")
	form.Set("password_confirm", "a-decent-password")

	rec := httptest.NewRecorder()
	env.AuthH.SignupSubmit(rec, postForm("/signup", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render form)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "already taken") {
		t.Error("expected duplicate-username error message in response body")
	}
}

func TestLoginSubmit_ValidCredentials(t *testing.T) {
	env := newTestEnv(t)
	user := env.testUser(t, false)

	form := url.Values{}
	form.Set("email", user.Email)
	form.Set("password", "test-password-1")

	rec := httptest.NewRecorder()
	env.AuthH.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sb_session" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected sb_session cookie to be set after login")
	}
}

func TestLoginSubmit_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.testUser(t, false)

	form := url.Values{}
	form.Set("email", user.Email)
	form.Set("password", "definitely-not-it")

	rec := httptest.NewRecorder()
	env.AuthH.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("expected generic credentials error in response body")
	}
}

func TestLoginSubmit_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{}
	form.Set("email", "nobody-here@example.com")
	form.Set("password", "irrelevant")

	rec := httptest.NewRecorder()
	env.AuthH.LoginSubmit(rec, postForm("/login", form))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (should re-render login)", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "Invalid email or password") {
		t.Error("expected generic credentials error in response body")
	}
}

func TestLogout_RedirectsHome(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()

	env.AuthH.Logout(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want /", loc)
	}
}
