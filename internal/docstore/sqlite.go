package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"

	_ "modernc.org/sqlite"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore はSQLiteのテーブルにJSONドキュメントを保存するストア。
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite はSQLiteデータベースを開き、マイグレーションを適用する。
// dsnには ":memory:" や "file:/data/coffee.db?_pragma=busy_timeout(5000)" を指定する。
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// 書き込みを直列化する。インメモリDBを接続間で共有する目的も兼ねる。
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}
	if _, err := migration.Run(ctx, db, migrationsFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Collection は指定した名前のコレクションを返す。
func (s *SQLiteStore) Collection(name string) Collection {
	return &sqliteCollection{db: s.db, name: name}
}

// Ping はデータベースへの疎通を確認する。
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}

type sqliteCollection struct {
	db   *sql.DB
	name string
}

func (c *sqliteCollection) Find(ctx context.Context, filter Filter, out any) error {
	query := "SELECT doc FROM documents WHERE collection = ?"
	args := []any{c.name}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := validField(k); err != nil {
			return err
		}
		query += fmt.Sprintf(" AND json_extract(doc, '$.%s') = ?", k)
		args = append(args, sqlValue(filter[k]))
	}
	query += " ORDER BY rowid"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s の検索に失敗: %w", c.name, err)
	}
	defer func() { _ = rows.Close() }()

	var buf bytes.Buffer
	buf.WriteByte('[')
	for n := 0; rows.Next(); n++ {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return fmt.Errorf("%s の読み取りに失敗: %w", c.name, err)
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(doc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s の読み取りに失敗: %w", c.name, err)
	}
	buf.WriteByte(']')

	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("%s のデコードに失敗: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCollection) FindOne(ctx context.Context, id string, out any, fields ...string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}

	raw, err := c.load(ctx, c.db, id)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		if raw, err = project(raw, fields); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s のデコードに失敗: %w", c.name, err)
	}
	return nil
}

func (c *sqliteCollection) InsertOne(ctx context.Context, doc any) (*InsertResult, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントのシリアライズに失敗: %w", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("ドキュメントはJSONオブジェクトである必要があります: %w", err)
	}

	var id string
	if existing, ok := m["_id"]; ok {
		_ = json.Unmarshal(existing, &id)
	}
	if !ValidID(id) {
		id = NewID()
	}
	m["_id"], _ = json.Marshal(id)

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントのシリアライズに失敗: %w", err)
	}
	if _, err := c.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)",
		c.name, id, string(body),
	); err != nil {
		return nil, fmt.Errorf("%s への追加に失敗: %w", c.name, err)
	}
	return &InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (c *sqliteCollection) UpdateOne(ctx context.Context, id string, set Fields) (*UpdateResult, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	for k := range set {
		if k == "_id" {
			return nil, errors.New("_id は更新できません")
		}
		if err := validField(k); err != nil {
			return nil, err
		}
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	raw, err := c.load(ctx, tx, id)
	if errors.Is(err, ErrNotFound) {
		return &UpdateResult{Acknowledged: true}, nil
	}
	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%s のデコードに失敗: %w", c.name, err)
	}

	modified := false
	for k, v := range set {
		next, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("フィールド %s のシリアライズに失敗: %w", k, err)
		}
		if prev, ok := m[k]; ok && jsonEqual(prev, next) {
			continue
		}
		m[k] = next
		modified = true
	}

	result := &UpdateResult{Acknowledged: true, MatchedCount: 1}
	if !modified {
		return result, tx.Commit()
	}

	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("ドキュメントのシリアライズに失敗: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE documents SET doc = ?, updated_at = datetime('now') WHERE collection = ? AND id = ?",
		string(body), c.name, id,
	); err != nil {
		return nil, fmt.Errorf("%s の更新に失敗: %w", c.name, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s の更新に失敗: %w", c.name, err)
	}
	result.ModifiedCount = 1
	return result, nil
}

func (c *sqliteCollection) DeleteOne(ctx context.Context, id string) (*DeleteResult, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	res, err := c.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", c.name, id)
	if err != nil {
		return nil, fmt.Errorf("%s の削除に失敗: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s の削除件数の取得に失敗: %w", c.name, err)
	}
	return &DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// load はIDでドキュメント本体を取得する。
func (c *sqliteCollection) load(ctx context.Context, q queryer, id string) ([]byte, error) {
	var doc string
	err := q.QueryRowContext(ctx,
		"SELECT doc FROM documents WHERE collection = ? AND id = ?", c.name, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s の取得に失敗: %w", c.name, err)
	}
	return []byte(doc), nil
}

// project はドキュメントから指定したフィールドだけを残す。_idも指定が無ければ除外する。
func project(raw []byte, fields []string) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("ドキュメントのデコードに失敗: %w", err)
	}
	projected := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			projected[f] = v
		}
	}
	return json.Marshal(projected)
}

// jsonEqual は2つのJSON値が意味的に等しいかを返す。
func jsonEqual(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return bytes.Equal(a, b)
	}
	return reflect.DeepEqual(va, vb)
}

// sqlValue はjson_extractの結果と比較できる値に変換する。
func sqlValue(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
