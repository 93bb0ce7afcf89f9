package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nshruti113/flow-anomaly-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	verdictHistoryKey = "verdicts:history"
	verdictCountsKey  = "verdicts:counts"
	alertsChannel     = "alerts"

	maxHistory = 1000
)

type RedisClient struct {
	client     *redis.Client
	sessionTTL time.Duration
}

func NewRedisClient(ctx context.Context, addr string, password string, db int, sessionTTL time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:     client,
		sessionTTL: sessionTTL,
	}, nil
}

// SaveSession stores the session as JSON and refreshes its TTL
func (r *RedisClient) SaveSession(ctx context.Context, session models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, sessionKeyPrefix+session.ID, data, r.sessionTTL).Err()
}

// LoadSession retrieves a session by id
func (r *RedisClient) LoadSession(ctx context.Context, id string) (models.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode session %s: %w", id, err)
	}

	return session, nil
}

// RecordVerdict appends to the verdict time series and bumps the per-label counter
func (r *RedisClient) RecordVerdict(ctx context.Context, entry models.VerdictEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()

	// Add to sorted set with timestamp as score
	pipe.ZAdd(ctx, verdictHistoryKey, redis.Z{
		Score:  float64(entry.Timestamp.UnixNano()),
		Member: string(data),
	})

	// Keep only the newest entries
	pipe.ZRemRangeByRank(ctx, verdictHistoryKey, 0, -maxHistory-1)

	pipe.HIncrBy(ctx, verdictCountsKey, entry.Label, 1)

	_, err = pipe.Exec(ctx)
	return err
}

// RecentVerdicts returns the newest entries first
func (r *RedisClient) RecentVerdicts(ctx context.Context, limit int) ([]models.VerdictEntry, error) {
	if limit <= 0 {
		return []models.VerdictEntry{}, nil
	}

	results, err := r.client.ZRevRange(ctx, verdictHistoryKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]models.VerdictEntry, 0, len(results))
	for _, result := range results {
		var entry models.VerdictEntry
		if err := json.Unmarshal([]byte(result), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// VerdictCounts returns the number of verdicts per label
func (r *RedisClient) VerdictCounts(ctx context.Context) (map[string]int64, error) {
	data, err := r.client.HGetAll(ctx, verdictCountsKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(data))
	for label, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		counts[label] = n
	}

	return counts, nil
}

// PublishAlert publishes an alert to subscribers
func (r *RedisClient) PublishAlert(ctx context.Context, alert models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, alertsChannel, string(data)).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
