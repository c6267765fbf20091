package scheduler

import (
	"context"
	"log/slog"
	"time"

	"seoroblog/internal/cache"
	"seoroblog/internal/store"
)

// PublishJob flips scheduled posts whose publish time has arrived to
// published. The underlying update is a single idempotent statement, so
// overlapping runs and manual invocations are harmless.
type PublishJob struct {
	posts     *store.PostStore
	feedCache *cache.FeedCache // nil when Valkey is not configured
}

// NewPublishJob creates the publish job.
func NewPublishJob(posts *store.PostStore, feedCache *cache.FeedCache) *PublishJob {
	return &PublishJob{posts: posts, feedCache: feedCache}
}

// Run satisfies cron.Job.
func (j *PublishJob) Run() {
	n, err := j.posts.PublishDue(time.Now())
	if err != nil {
		slog.Error("publish scheduled posts failed", "error", err)
		return
	}
	if n > 0 {
		slog.Info("published scheduled posts", "count", n)
		if j.feedCache != nil {
			j.feedCache.Invalidate(context.Background())
		}
	}
}
