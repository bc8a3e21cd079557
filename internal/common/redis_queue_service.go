package common

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gatehouse/internal/logging"

	"github.com/redis/go-redis/v9"
)

const (
	EffectStream = "gatehouse:effects"
	EffectGroup  = "effect-workers"
)

// RedisQueueService provides queue functionality using Redis Streams
type RedisQueueService struct {
	client *redis.Client
}

func NewRedisQueueService(client *redis.Client) *RedisQueueService {
	return &RedisQueueService{client: client}
}

// EffectQueueItem is a post-decision side effect that failed once and waits
// for another attempt.
type EffectQueueItem struct {
	Effect        string            `json:"effect"`
	ApplicationID string            `json:"application_id"`
	Payload       map[string]string `json:"payload"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"last_error,omitempty"`
	EnqueuedAt    time.Time         `json:"enqueued_at"`
}

// Enqueue adds an item to the stream.
func (s *RedisQueueService) Enqueue(ctx context.Context, stream string, item *EffectQueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal effect item: %w", err)
	}

	// XADD stream * data <json>
	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// Dequeue reads one new message for consumer. It returns a nil item when the
// block time passes with nothing to read.
func (s *RedisQueueService) Dequeue(ctx context.Context, stream, group, consumer string, block time.Duration) (*EffectQueueItem, string, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	item, err := decodeEffect(msg)
	if err != nil {
		return nil, msg.ID, err
	}
	return item, msg.ID, nil
}

func (s *RedisQueueService) Ack(ctx context.Context, stream, group, messageID string) error {
	return s.client.XAck(ctx, stream, group, messageID).Err()
}

// CreateConsumerGroup creates the group if it does not exist yet.
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := s.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (s *RedisQueueService) Length(ctx context.Context, stream string) (int64, error) {
	n, err := s.client.XLen(ctx, stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

// ClaimStale takes over messages another consumer read but never acked.
func (s *RedisQueueService) ClaimStale(ctx context.Context, stream, group, consumer string, minIdle time.Duration) ([]*EffectQueueItem, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  50,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var items []*EffectQueueItem
	var ids []string
	for _, msg := range messages {
		item, err := decodeEffect(msg)
		if err != nil {
			logging.Warn("Dropping undecodable effect message", "id", msg.ID, "error", err.Error())
			_ = s.Ack(ctx, stream, group, msg.ID)
			continue
		}
		items = append(items, item)
		ids = append(ids, msg.ID)
	}
	return items, ids, nil
}

func decodeEffect(msg redis.XMessage) (*EffectQueueItem, error) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: data field missing")
	}
	var item EffectQueueItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal effect item: %w", err)
	}
	return &item, nil
}

// PendingCount returns how many messages were read by the group but not
// acked yet.
func (s *RedisQueueService) PendingCount(ctx context.Context, stream, group string) (int64, error) {
	pending, err := s.client.XPending(ctx, stream, group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}
