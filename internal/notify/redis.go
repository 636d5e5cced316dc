package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis server at url and verifies it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisNotifier publishes notifications as JSON on a per-squad channel.
type RedisNotifier struct {
	client redis.Cmdable
	prefix string
}

func NewRedisNotifier(client redis.Cmdable, prefix string) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: prefix}
}

// Channel is the pub/sub channel carrying outcome notifications of a squad.
func (r *RedisNotifier) Channel(squadID uuid.UUID) string {
	return fmt.Sprintf("%s:squad:%s:outcomes", r.prefix, squadID)
}

func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := Encode(n)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.Channel(n.SquadID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish %s for event %s: %w", n.Kind, n.EventID, err)
	}
	return nil
}

// Encode is the wire format of a published notification.
func Encode(n Notification) ([]byte, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification: %w", err)
	}
	return body, nil
}
