package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clipvault/clipvault/common/models"
	rediscommon "github.com/clipvault/clipvault/common/redis"
)

// RedisPublisher publishes events onto Redis streams. Message attributes
// ride alongside the JSON payload so consumers can filter without decoding.
type RedisPublisher struct {
	redis *rediscommon.Client
}

// NewRedisPublisher creates a stream-backed publisher.
func NewRedisPublisher(redis *rediscommon.Client) *RedisPublisher {
	return &RedisPublisher{redis: redis}
}

// Publish appends the event to the given stream.
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event models.ClipEvent) error {
	payload, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = p.redis.AddToStream(ctx, stream, map[string]interface{}{
		"payload":    string(payload),
		"event_type": event.EventType,
		"event_id":   event.EventID.String(),
		"content_id": event.ContentID.String(),
	})
	return err
}

// PublishDeadLetter appends a failed event plus failure metadata to the
// dead-letter stream.
func (p *RedisPublisher) PublishDeadLetter(ctx context.Context, stream string, letter models.DeadLetter) error {
	payload, err := letter.Marshal()
	if err != nil {
		return fmt.Errorf("encode dead letter: %w", err)
	}

	_, err = p.redis.AddToStream(ctx, stream, map[string]interface{}{
		"payload":      string(payload),
		"event_type":   letter.Event.EventType,
		"event_id":     letter.Event.EventID.String(),
		"error_reason": letter.ErrorReason,
	})
	return err
}

// ReadDeadLetters reads up to max entries from the dead-letter stream
// without consuming them.
func (p *RedisPublisher) ReadDeadLetters(ctx context.Context, stream string, max int64) ([]StoredDeadLetter, error) {
	msgs, err := p.redis.RangeStream(ctx, stream, "-", "+", max)
	if err != nil {
		return nil, err
	}

	letters := make([]StoredDeadLetter, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			continue
		}

		var letter models.DeadLetter
		if err := unmarshalDeadLetter([]byte(raw), &letter); err != nil {
			continue
		}

		letters = append(letters, StoredDeadLetter{ID: msg.ID, Letter: letter})
	}

	return letters, nil
}

// DeleteDeadLetter removes a replayed entry from the dead-letter stream.
func (p *RedisPublisher) DeleteDeadLetter(ctx context.Context, stream, id string) error {
	return p.redis.DeleteStreamMessage(ctx, stream, id)
}

func unmarshalDeadLetter(data []byte, letter *models.DeadLetter) error {
	return json.Unmarshal(data, letter)
}
