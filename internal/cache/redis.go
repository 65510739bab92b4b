// Package cache はRedisを使った読み取りキャッシュを提供する。
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss はキャッシュにエントリが存在しないことを表す。
var ErrMiss = errors.New("キャッシュにエントリがありません")

// KV はキーごとにフィールドを持つキャッシュの操作。
type KV interface {
	GetField(ctx context.Context, key, field string) (string, error)
	SetField(ctx context.Context, key, field, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Redis はRedisのハッシュをKVとして使うクライアント。
type Redis struct {
	C *redis.Client
}

// New は指定アドレスのRedisクライアントを作成する。接続は遅延して行われる。
func New(addr string) *Redis {
	return &Redis{
		C: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Ping はRedisへの疎通を確認する。
func (r *Redis) Ping(ctx context.Context) error {
	return r.C.Ping(ctx).Err()
}

// Close はクライアントを閉じる。
func (r *Redis) Close() error {
	return r.C.Close()
}

// GetField はハッシュのフィールド値を返す。存在しなければErrMiss。
func (r *Redis) GetField(ctx context.Context, key, field string) (string, error) {
	s, err := r.C.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return s, err
}

// SetField はハッシュにフィールドを書き込み、キー全体の有効期限をttlに設定する。
func (r *Redis) SetField(ctx context.Context, key, field, value string, ttl time.Duration) error {
	pipe := r.C.TxPipeline()
	pipe.HSet(ctx, key, field, value)
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Delete はキーを削除する。
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.C.Del(ctx, key).Err()
}
