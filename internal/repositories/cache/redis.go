package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"corebank/internal/models"
)

// Key prefixes and default expirations.
const (
	transactionKeyPrefix = "transaction:"
	assessmentKeyPrefix  = "risk:"

	transactionTTL = time.Hour
	assessmentTTL  = 15 * time.Minute
)

// NewRedisClient builds a redis client from connection settings.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// RedisCache is a read-path cache for terminal transactions and risk
// assessments. A miss is never an error the callers care about; everything
// falls back to the repository.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	val, err := c.client.Get(ctx, transactionKeyPrefix+transactionID).Result()
	if err != nil {
		return nil, err
	}
	var tx models.Transaction
	if err := json.Unmarshal([]byte(val), &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *RedisCache) SetTransaction(ctx context.Context, tx *models.Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, transactionKeyPrefix+tx.TransactionID, data, transactionTTL).Err()
}

func (c *RedisCache) DeleteTransaction(ctx context.Context, transactionID string) error {
	return c.client.Del(ctx, transactionKeyPrefix+transactionID).Err()
}

func (c *RedisCache) GetAssessment(ctx context.Context, entityType models.EntityType, entityID string) (*models.RiskAssessment, error) {
	val, err := c.client.Get(ctx, assessmentKey(entityType, entityID)).Result()
	if err != nil {
		return nil, err
	}
	var a models.RiskAssessment
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *RedisCache) SetAssessment(ctx context.Context, a *models.RiskAssessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, assessmentKey(a.EntityType, a.EntityID), data, assessmentTTL).Err()
}

func (c *RedisCache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

func assessmentKey(entityType models.EntityType, entityID string) string {
	return fmt.Sprintf("%s%s:%s", assessmentKeyPrefix, entityType, entityID)
}
