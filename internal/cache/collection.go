package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
)

// Collection はFindOneの結果をキャッシュするdocstore.Collection。
// 更新と削除では該当IDのエントリを破棄する。キャッシュの障害はストアへのフォールバックで吸収する。
type Collection struct {
	docstore.Collection
	kv     KV
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

// NewCollection はcollをキャッシュで包む。キーは prefix + ID になる。
func NewCollection(coll docstore.Collection, kv KV, ttl time.Duration, prefix string, log zerolog.Logger) *Collection {
	return &Collection{Collection: coll, kv: kv, ttl: ttl, prefix: prefix, log: log}
}

func (c *Collection) key(id string) string { return c.prefix + id }

// projectionField は射影ごとのハッシュフィールド名を返す。射影なしは "*"。
func projectionField(fields []string) string {
	if len(fields) == 0 {
		return "*"
	}
	return strings.Join(fields, ",")
}

// FindOne はキャッシュを優先して1件取得し、ミス時はストアから取得して書き戻す。
// 見つからなかった結果はキャッシュしない。
func (c *Collection) FindOne(ctx context.Context, id string, out any, fields ...string) error {
	key, field := c.key(id), projectionField(fields)

	s, err := c.kv.GetField(ctx, key, field)
	if err == nil {
		if jerr := json.Unmarshal([]byte(s), out); jerr == nil {
			return nil
		}
	} else if !errors.Is(err, ErrMiss) {
		c.log.Warn().Err(err).Str("key", key).Msg("キャッシュの読み取りに失敗")
	}

	if err := c.Collection.FindOne(ctx, id, out, fields...); err != nil {
		return err
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	if err := c.kv.SetField(ctx, key, field, string(b), c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("キャッシュへの書き込みに失敗")
	}
	return nil
}

// UpdateOne は更新後にキャッシュを破棄する。
func (c *Collection) UpdateOne(ctx context.Context, id string, set docstore.Fields) (*docstore.UpdateResult, error) {
	res, err := c.Collection.UpdateOne(ctx, id, set)
	if err == nil {
		c.evict(ctx, id)
	}
	return res, err
}

// DeleteOne は削除後にキャッシュを破棄する。
func (c *Collection) DeleteOne(ctx context.Context, id string) (*docstore.DeleteResult, error) {
	res, err := c.Collection.DeleteOne(ctx, id)
	if err == nil {
		c.evict(ctx, id)
	}
	return res, err
}

func (c *Collection) evict(ctx context.Context, id string) {
	if err := c.kv.Delete(ctx, c.key(id)); err != nil {
		c.log.Warn().Err(err).Str("key", c.key(id)).Msg("キャッシュの破棄に失敗")
	}
}
