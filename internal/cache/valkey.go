// Package cache holds the Valkey client setup and the cache for rendered
// feed documents. Valkey also backs sessions, but that lives in the
// session package; this package owns the shared client construction.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds the startup ping so a missing Valkey fails fast
// instead of hanging boot.
const connectTimeout = 5 * time.Second

// ConnectValkey dials Valkey and confirms it answers before anything is
// allowed to depend on it.
func ConnectValkey(host, port, password string) (*redis.Client, error) {
	addr := net.JoinHostPort(host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping valkey at %s: %w", addr, err)
	}

	slog.Info("valkey connected", "addr", addr)
	return client, nil
}
