// comment_flow_test.go contains handler integration tests for the Comments
// handler group: creating comments, the report flow with auto-hide, and
// staff moderation.
package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"seoroblog/internal/models"
)

// addComment creates a comment on a post directly through the store.
func (env *testEnv) addComment(t *testing.T, post *models.Post, author *models.User, content string) *models.Comment {
	t.Helper()
	c, err := env.Comments.Create(post.ID, author.ID, content)
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	return c
}

func TestCommentCreate_OnVisiblePost(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	reader := env.testUser(t, false)
	post := env.testPost(t, author, nil)

	form := url.Values{}
	form.Set("content", "Nice write-up, thanks!")

	req := postForm("/posts/"+post.ID.String()+"/comments", form)
	req = withChiURLParamAndSession(req, "id", post.ID.String(), testSessionData(reader))
	rec := httptest.NewRecorder()

	env.CommentsH.Create(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/posts/"+post.ID.String() {
		t.Errorf("Location: got %q, want post page", loc)
	}

	comments, err := env.Comments.ListForPost(post.ID, false)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 1 || comments[0].Content != "Nice write-up, thanks!" {
		t.Errorf("expected the new comment on the post, got %d comments", len(comments))
	}
}

func TestCommentCreate_DraftPostRejected(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)

	draft, err := env.Posts.Create(&models.Post{
		Title:    "Draft, no comments",
		Content:  "wip",
		Status:   models.PostStatusDraft,
		IsPublic: true,
		AuthorID: author.ID,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE id = $1", draft.ID)
	})

	// Even the author cannot comment while the post is not publicly visible.
	form := url.Values{}
	form.Set("content", "first!")

	req := postForm("/posts/"+draft.ID.String()+"/comments", form)
	req = withChiURLParamAndSession(req, "id", draft.ID.String(), testSessionData(author))
	rec := httptest.NewRecorder()

	env.CommentsH.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCommentReport_AutoHidesAtThreshold(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	commenter := env.testUser(t, false)
	post := env.testPost(t, author, nil)
	comment := env.addComment(t, post, commenter, "borderline take")

	for i := 0; i < env.Cfg.ReportHideThreshold; i++ {
		reporter := env.testUser(t, false)

		form := url.Values{}
		form.Set("reason", "spam")

		req := postForm("/comments/"+comment.ID.String()+"/report", form)
		req = withChiURLParamAndSession(req, "id", comment.ID.String(), testSessionData(reporter))
		rec := httptest.NewRecorder()

		env.CommentsH.Report(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("report %d: status got %d, want %d", i+1, rec.Code, http.StatusSeeOther)
		}
	}

	fresh, err := env.Comments.FindByID(comment.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload comment: %v", err)
	}
	if !fresh.IsHidden {
		t.Errorf("comment should be hidden after %d reports", env.Cfg.ReportHideThreshold)
	}
	if fresh.ReportCount != env.Cfg.ReportHideThreshold {
		t.Errorf("report count: got %d, want %d", fresh.ReportCount, env.Cfg.ReportHideThreshold)
	}
}

func TestCommentReport_SelfReportIgnored(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	post := env.testPost(t, author, nil)
	comment := env.addComment(t, post, author, "my own comment")

	form := url.Values{}
	form.Set("reason", "other")

	req := postForm("/comments/"+comment.ID.String()+"/report", form)
	req = withChiURLParamAndSession(req, "id", comment.ID.String(), testSessionData(author))
	rec := httptest.NewRecorder()

	env.CommentsH.Report(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	fresh, _ := env.Comments.FindByID(comment.ID)
	if fresh.ReportCount != 0 {
		t.Errorf("self-report must not count, got report count %d", fresh.ReportCount)
	}
}

func TestCommentReport_InvalidReason(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	reporter := env.testUser(t, false)
	post := env.testPost(t, author, nil)
	comment := env.addComment(t, post, author, "fine comment")

	form := url.Values{}
	form.Set("reason", "i-just-dislike-it")

	req := postForm("/comments/"+comment.ID.String()+"/report", form)
	req = withChiURLParamAndSession(req, "id", comment.ID.String(), testSessionData(reporter))
	rec := httptest.NewRecorder()

	env.CommentsH.Report(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	fresh, _ := env.Comments.FindByID(comment.ID)
	if fresh.ReportCount != 0 {
		t.Errorf("invalid reason must not count, got report count %d", fresh.ReportCount)
	}
}

func TestCommentDelete_AuthorOrStaff(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	commenter := env.testUser(t, false)
	stranger := env.testUser(t, false)
	staff := env.testUser(t, true)
	post := env.testPost(t, author, nil)

	// A stranger cannot delete someone else's comment.
	c1 := env.addComment(t, post, commenter, "to survive")
	req := postForm("/comments/"+c1.ID.String()+"/delete", url.Values{})
	req = withChiURLParamAndSession(req, "id", c1.ID.String(), testSessionData(stranger))
	rec := httptest.NewRecorder()
	env.CommentsH.Delete(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger delete: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Staff can.
	req = postForm("/comments/"+c1.ID.String()+"/delete", url.Values{})
	req = withChiURLParamAndSession(req, "id", c1.ID.String(), testSessionData(staff))
	rec = httptest.NewRecorder()
	env.CommentsH.Delete(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Errorf("staff delete: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if gone, _ := env.Comments.FindByID(c1.ID); gone != nil {
		t.Error("comment should be deleted by staff")
	}
}

func TestCommentHide_StaffToggle(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, false)
	staff := env.testUser(t, true)
	post := env.testPost(t, author, nil)
	comment := env.addComment(t, post, author, "to be moderated")

	form := url.Values{}
	form.Set("hidden", "true")

	req := postForm("/comments/"+comment.ID.String()+"/hide", form)
	req = withChiURLParamAndSession(req, "id", comment.ID.String(), testSessionData(staff))
	rec := httptest.NewRecorder()

	env.CommentsH.Hide(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	fresh, _ := env.Comments.FindByID(comment.ID)
	if !fresh.IsHidden {
		t.Error("comment should be hidden after staff hide")
	}

	// And back again.
	form.Set("hidden", "false")
	req = postForm("/comments/"+comment.ID.String()+"/hide", form)
	req = withChiURLParamAndSession(req, "id", comment.ID.String(), testSessionData(staff))
	rec = httptest.NewRecorder()

	env.CommentsH.Hide(rec, req)

	fresh, _ = env.Comments.FindByID(comment.ID)
	if fresh.IsHidden {
		t.Error("comment should be visible after staff unhide")
	}
}
