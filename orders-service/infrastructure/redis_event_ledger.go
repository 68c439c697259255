package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/draftea/order-system/orders-service/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisEventLedger implements ProcessedEventLedger with SET NX. A zero TTL keeps records
// forever; a positive TTL bounds deduplication to that window.
type RedisEventLedger struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisEventLedger creates a new RedisEventLedger
func NewRedisEventLedger(client redis.UniversalClient, serviceName string, ttl time.Duration) *RedisEventLedger {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisEventLedger{
		client:    client,
		keyPrefix: serviceName + ":processed",
		ttl:       ttl,
	}
}

func (l *RedisEventLedger) key(sourceType, eventID string) string {
	return fmt.Sprintf("%s:%s:%s", l.keyPrefix, sourceType, eventID)
}

// IsProcessed reports whether the event was already marked
func (l *RedisEventLedger) IsProcessed(ctx context.Context, sourceType, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(sourceType, eventID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check processed event")
	}
	return n > 0, nil
}

// MarkProcessed stores the record only when the key is absent
func (l *RedisEventLedger) MarkProcessed(ctx context.Context, record domain.ProcessedEvent) error {
	value, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal processed event")
	}

	ok, err := l.client.SetNX(ctx, l.key(record.SourceType, record.EventID), value, l.ttl).Result()
	if err != nil {
		return errors.Wrap(err, "failed to mark event processed")
	}
	if !ok {
		return domain.NewError(domain.KindDuplicateKey, "event %s/%s already processed", record.SourceType, record.EventID)
	}
	return nil
}

// Get returns the stored record of an event
func (l *RedisEventLedger) Get(ctx context.Context, sourceType, eventID string) (*domain.ProcessedEvent, error) {
	data, err := l.client.Get(ctx, l.key(sourceType, eventID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to load processed event")
	}

	var record domain.ProcessedEvent
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal processed event")
	}
	return &record, nil
}
