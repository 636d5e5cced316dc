package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Notification {
	return Notification{
		Kind:           KindOverturned,
		EventID:        uuid.New(),
		OutcomeID:      uuid.New(),
		SquadID:        uuid.New(),
		JudgeID:        uuid.New(),
		ChallengeCount: 4,
		SquadSize:      6,
		OccurredAt:     time.Date(2026, 10, 18, 20, 30, 0, 0, time.UTC),
	}
}

func TestHookFunc(t *testing.T) {
	var got []Notification
	hook := HookFunc(func(_ context.Context, n Notification) error {
		got = append(got, n)
		return nil
	})

	n := sample()
	require.NoError(t, hook.Notify(context.Background(), n))
	require.Len(t, got, 1)
	assert.Equal(t, n, got[0])
}

func TestFanoutDeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var delivered int
	counting := HookFunc(func(context.Context, Notification) error {
		delivered++
		return nil
	})
	failing := HookFunc(func(context.Context, Notification) error { return boom })

	fan := Fanout{failing, nil, counting, Noop{}, counting}
	err := fan.Notify(context.Background(), sample())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, delivered)
	assert.NoError(t, Fanout{}.Notify(context.Background(), sample()))
}

func TestEncode(t *testing.T) {
	n := sample()
	body, err := Encode(n)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "outcome.overturned", decoded["kind"])
	assert.Equal(t, n.EventID.String(), decoded["event_id"])
	assert.Equal(t, float64(4), decoded["challenge_count"])
	assert.Equal(t, "2026-10-18T20:30:00Z", decoded["occurred_at"])
}

func TestRedisChannel(t *testing.T) {
	squadID := uuid.MustParse("7b0c2a4e-0000-4000-8000-000000000001")
	r := NewRedisNotifier(nil, "daily-squad")
	assert.Equal(t, "daily-squad:squad:7b0c2a4e-0000-4000-8000-000000000001:outcomes", r.Channel(squadID))
}

func TestRedisNotifierReportsPublishFailure(t *testing.T) {
	// Nothing listens on this port; the client fails fast on dial.
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	err := NewRedisNotifier(client, "test").Notify(context.Background(), sample())
	assert.Error(t, err)
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}
