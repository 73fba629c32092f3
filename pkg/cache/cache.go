package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quillforum/quill-backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache TTLs per object class.
const (
	TTLDocument = 5 * time.Minute  // owning documents looked up by the access policy
	TTLUser     = 5 * time.Minute  // user records resolved from auth tokens
	TTLChain    = 1 * time.Minute  // revision chains, refreshed often while editing
)

// Cache key prefixes.
const (
	PrefixDocument = "doc:"
	PrefixUser     = "user:"
	PrefixChain    = "chain:"
)

// Service is the redis cache interface.
type Service interface {
	// Document cache
	GetDocument(ctx context.Context, ref domain.DocumentRef) ([]byte, error)
	SetDocument(ctx context.Context, ref domain.DocumentRef, doc interface{}) error
	InvalidateDocument(ctx context.Context, ref domain.DocumentRef) error

	// User cache
	GetUser(ctx context.Context, userID string) ([]byte, error)
	SetUser(ctx context.Context, userID string, data interface{}) error
	InvalidateUser(ctx context.Context, userID string) error

	// Revision chain cache
	GetChain(ctx context.Context, ref domain.DocumentRef, fieldName string) ([]byte, error)
	SetChain(ctx context.Context, ref domain.DocumentRef, fieldName string, data interface{}) error
	InvalidateChain(ctx context.Context, ref domain.DocumentRef, fieldName string) error

	// Utilities
	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache is the redis-backed implementation. Every method tolerates a
// nil client: reads miss, writes are no-ops, so the engine runs without
// redis in degraded mode.
type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// ========================================
// Document cache
// ========================================

func (c *redisCache) documentKey(ref domain.DocumentRef) string {
	return fmt.Sprintf("%s%s:%s", PrefixDocument, ref.Kind, ref.ID)
}

func (c *redisCache) GetDocument(ctx context.Context, ref domain.DocumentRef) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.documentKey(ref)).Bytes()
}

func (c *redisCache) SetDocument(ctx context.Context, ref domain.DocumentRef, doc interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.documentKey(ref), jsonData, TTLDocument).Err()
}

func (c *redisCache) InvalidateDocument(ctx context.Context, ref domain.DocumentRef) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.documentKey(ref)).Err()
}

// ========================================
// User cache
// ========================================

func (c *redisCache) userKey(userID string) string {
	return PrefixUser + userID
}

func (c *redisCache) GetUser(ctx context.Context, userID string) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.userKey(userID)).Bytes()
}

func (c *redisCache) SetUser(ctx context.Context, userID string, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.userKey(userID), jsonData, TTLUser).Err()
}

func (c *redisCache) InvalidateUser(ctx context.Context, userID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.userKey(userID)).Err()
}

// ========================================
// Revision chain cache
// ========================================

func (c *redisCache) chainKey(ref domain.DocumentRef, fieldName string) string {
	return fmt.Sprintf("%s%s:%s:%s", PrefixChain, ref.Kind, ref.ID, fieldName)
}

func (c *redisCache) GetChain(ctx context.Context, ref domain.DocumentRef, fieldName string) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.chainKey(ref, fieldName)).Bytes()
}

func (c *redisCache) SetChain(ctx context.Context, ref domain.DocumentRef, fieldName string, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.chainKey(ref, fieldName), jsonData, TTLChain).Err()
}

func (c *redisCache) InvalidateChain(ctx context.Context, ref domain.DocumentRef, fieldName string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.chainKey(ref, fieldName)).Err()
}
