// Package cache is a Redis-backed response cache for shaped feed payloads.
//
// Keys follow the pattern {subject}:{user_id}:{selector} so that all cached
// entries for one user can be swept with prefix scans when that user's
// upstream session rotates.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"feed-gateway/internal/common/errors"
)

// Subject namespaces cache keys by the kind of payload they hold.
type Subject string

const (
	// SubjectFeed holds shaped feed pages, keyed by page number.
	SubjectFeed Subject = "recommendations"
	// SubjectVideo holds shaped per-video payloads, keyed by video id.
	SubjectVideo Subject = "video"
)

// Subjects lists every namespace swept by InvalidateUser.
var Subjects = []Subject{SubjectFeed, SubjectVideo}

// Config holds Redis connection settings and the entry TTL.
type Config struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

// Store is a thin wrapper around a Redis client. It is safe for
// concurrent use.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.ConnectionError("failed to connect to redis", err)
	}

	return &Store{
		client: client,
		ttl:    config.TTL,
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Key builds the cache key for a subject, user and selector.
func Key(subject Subject, userID, selector string) string {
	return string(subject) + ":" + userID + ":" + selector
}

// Get returns the cached payload for key, with found=false on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.ConnectionError("cache read failed", err)
	}
	return payload, true, nil
}

// Set stores payload under key with the configured TTL.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return errors.ConnectionError("cache write failed", err)
	}
	return nil
}

// InvalidateUser deletes every cached entry for userID across all
// subjects. A failure mid-sweep leaves the remaining keys to expire
// via their TTL.
func (s *Store) InvalidateUser(ctx context.Context, userID string) error {
	for _, subject := range Subjects {
		pattern := string(subject) + ":" + userID + ":*"

		iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
				return errors.ConnectionError("cache invalidation failed", err)
			}
		}
		if err := iter.Err(); err != nil {
			return errors.ConnectionError("cache scan failed", err)
		}
	}
	return nil
}
