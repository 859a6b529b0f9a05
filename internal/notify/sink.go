package notify

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

type LogSink struct{}

func (LogSink) Send(_ context.Context, n Notification) error {
	log.Printf("notify [%s] %s: %s", n.Kind, n.Title, n.Body)
	return nil
}

// FeedKey holds the newest notifications, newest first.
const FeedKey = "notifications:feed"

// FeedSize bounds the feed list.
const FeedSize = 100

// Feed keeps recent notifications in a capped Redis list so the app can
// show them.
type Feed struct{ RDB *redis.Client }

func (f *Feed) Send(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = f.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, FeedKey, b)
		p.LTrim(ctx, FeedKey, 0, FeedSize-1)
		return nil
	})
	return err
}

// Recent returns up to limit notifications, newest first.
func (f *Feed) Recent(ctx context.Context, limit int) ([]Notification, error) {
	if limit <= 0 || limit > FeedSize {
		limit = FeedSize
	}
	raw, err := f.RDB.LRange(ctx, FeedKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Notification, 0, len(raw))
	for _, s := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(s), &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Multi fans a notification out to every sink; the first error wins.
type Multi []Sink

func (m Multi) Send(ctx context.Context, n Notification) error {
	for _, s := range m {
		if err := s.Send(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
