package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autoparts/internal/domain/checkout"
	"autoparts/internal/usecase"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "checkout:draft:"

// 使うコマンドだけ（*redis.Clientが満たす）
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisDraftStore はチェックアウト状態をJSONでRedisに置く。TTLで自動的に消える
type RedisDraftStore struct {
	rdb redisKV
	ttl time.Duration
}

func NewRedisDraftStore(rdb redisKV, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func draftKey(userID uuid.UUID) string {
	return draftKeyPrefix + userID.String()
}

func (s *RedisDraftStore) Load(ctx context.Context, userID uuid.UUID) (*checkout.State, error) {
	b, err := s.rdb.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout draft: %w", err)
	}

	var st checkout.State
	if err := json.Unmarshal(b, &st); err != nil {
		// 壊れたドラフトは最初からやり直し
		return nil, nil
	}
	return &st, nil
}

// 保存のたびにTTLを延ばす
func (s *RedisDraftStore) Save(ctx context.Context, userID uuid.UUID, state *checkout.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode checkout draft: %w", err)
	}
	if err := s.rdb.Set(ctx, draftKey(userID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save checkout draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.rdb.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete checkout draft: %w", err)
	}
	return nil
}

var _ usecase.DraftStore = (*RedisDraftStore)(nil)
