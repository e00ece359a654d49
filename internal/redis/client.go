package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// SessionStateKey is the hash holding a session's last timer snapshot.
func SessionStateKey(sessionID int64) string {
	return fmt.Sprintf("chef:session:state:%d", sessionID)
}

// TodayCountKey is the per-dish completion counter for one UTC day.
func TodayCountKey(dishID int64, now time.Time) string {
	return fmt.Sprintf("chef:today:cook_count:%s:%d", now.UTC().Format("20060102"), dishID)
}
