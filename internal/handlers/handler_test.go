// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"seoroblog/internal/cache"
	"seoroblog/internal/config"
	"seoroblog/internal/database"
	"seoroblog/internal/feeds"
	"seoroblog/internal/middleware"
	"seoroblog/internal/models"
	"seoroblog/internal/render"
	"seoroblog/internal/session"
	"seoroblog/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "seoroblog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "seoroblog")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")
	password := os.Getenv("VALKEY_PASSWORD")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "flash:*", "viewed:*", "feed:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// testConfig returns a Config with default policy knobs for handler tests.
func testConfig() *config.Config {
	return &config.Config{
		ReportHideThreshold: 3,
		PostsPerPage:        10,
		CommentsPerPage:     20,
		SiteURL:             "http://localhost:8080",
		SiteTitle:           "Seoroblog",
		SiteDescription:     "A developer blog",
	}
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Users      *store.UserStore
	Profiles   *store.ProfileStore
	Posts      *store.PostStore
	Comments   *store.CommentStore
	Categories *store.CategoryStore
	Tags       *store.TagStore
	Images     *store.ImageStore
	FeedCache  *cache.FeedCache
	Cfg        *config.Config

	AuthH     *Auth
	PostsH    *Posts
	CommentsH *Comments
	ProfilesH *Profiles
	FeedsH    *Feeds
	BackupH   *Backup
	UploadH   *Upload
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	cfg := testConfig()
	sessions := session.NewStore(vk, false)
	users := store.NewUserStore(db)
	profiles := store.NewProfileStore(db)
	posts := store.NewPostStore(db)
	comments := store.NewCommentStore(db)
	categories := store.NewCategoryStore(db)
	tags := store.NewTagStore(db)
	images := store.NewImageStore(db)
	feedCache := cache.NewFeedCache(vk, 1*time.Minute)
	builder := feeds.NewBuilder(cfg.SiteURL, cfg.SiteTitle, cfg.SiteDescription)

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Users:      users,
		Profiles:   profiles,
		Posts:      posts,
		Comments:   comments,
		Categories: categories,
		Tags:       tags,
		Images:     images,
		FeedCache:  feedCache,
		Cfg:        cfg,

		AuthH:     NewAuth(renderer, sessions, users),
		PostsH:    NewPosts(renderer, sessions, posts, comments, categories, tags, feedCache, cfg),
		CommentsH: NewComments(renderer, sessions, comments, posts, cfg),
		ProfilesH: NewProfiles(renderer, sessions, users, profiles, posts),
		FeedsH:    NewFeeds(builder, posts, categories, feedCache),
		BackupH:   NewBackup(renderer, posts, comments, categories, tags),
		UploadH:   NewUpload(nil, images),
	}
}

// testUser creates a user with a unique name and registers cascade cleanup.
func (env *testEnv) testUser(t *testing.T, staff bool) *models.User {
	t.Helper()

	tag := uuid.NewString()[:8]
	user, err := env.Users.Create("tester-"+tag, fmt.Sprintf("tester-%s@example.com", tag), "test-password-1")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	if staff {
		if err := env.Users.SetStaff(user.ID, true); err != nil {
			t.Fatalf("set staff: %v", err)
		}
		user.IsStaff = true
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

// testSessionData builds a session payload for a user without going
// through the login flow.
func testSessionData(user *models.User) *session.Data {
	return &session.Data{
		UserID:    user.ID,
		Username:  user.Username,
		IsStaff:   user.IsStaff,
		CreatedAt: time.Now(),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withChiURLParamAndSession adds both chi URL param and session to a request.
func withChiURLParamAndSession(r *http.Request, key, value string, sess *session.Data) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.SessionKey, sess)
	return r.WithContext(ctx)
}

// testCategory creates a category and registers cleanup.
func (env *testEnv) testCategory(t *testing.T) *models.Category {
	t.Helper()

	tag := uuid.NewString()[:8]
	cat, err := env.Categories.Create("Handler Cat "+tag, "", "")
	if err != nil {
		t.Fatalf("create test category: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM categories WHERE id = $1", cat.ID)
	})
	return cat
}

// testPost creates a published public post owned by the given user.
func (env *testEnv) testPost(t *testing.T, author *models.User, cat *models.Category) *models.Post {
	t.Helper()

	now := time.Now()
	post := &models.Post{
		Title:       "Handler test post " + uuid.NewString()[:8],
		Content:     "Some body text for handler tests.",
		Status:      models.PostStatusPublished,
		IsPublic:    true,
		AuthorID:    author.ID,
		PublishedAt: &now,
	}
	if cat != nil {
		post.CategoryID = &cat.ID
	}
	created, err := env.Posts.Create(post)
	if err != nil {
		t.Fatalf("create test post: %v", err)
	}
	t.Cleanup(func() {
		env.DB.Exec("DELETE FROM posts WHERE id = $1", created.ID)
	})
	return created
}
