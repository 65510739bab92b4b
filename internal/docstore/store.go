package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound は指定したIDのドキュメントが存在しないことを表す。
	ErrNotFound = errors.New("ドキュメントが見つかりません")
	// ErrInvalidID はドキュメントIDの形式が不正であることを表す。
	ErrInvalidID = errors.New("ドキュメントIDの形式が不正です")
)

// Filter はトップレベルフィールドの完全一致条件を表す。nilまたは空なら全件が対象。
type Filter map[string]any

// Fields は更新するフィールドと値の組を表す。
type Fields map[string]any

// InsertResult はinsertOneの結果。
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult はupdateOneの結果。
type UpdateResult struct {
	Acknowledged  bool    `json:"acknowledged"`
	MatchedCount  int64   `json:"matchedCount"`
	ModifiedCount int64   `json:"modifiedCount"`
	UpsertedCount int64   `json:"upsertedCount"`
	UpsertedID    *string `json:"upsertedId"`
}

// DeleteResult はdeleteOneの結果。
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// Collection はドキュメントの集合に対する操作。
type Collection interface {
	// Find はfilterに一致する全ドキュメントを挿入順にoutへデコードする。outはスライスへのポインタ。
	Find(ctx context.Context, filter Filter, out any) error
	// FindOne はIDで1件取得してoutへデコードする。fieldsを指定するとそのフィールドだけを返す。
	FindOne(ctx context.Context, id string, out any, fields ...string) error
	// InsertOne はドキュメントを追加し、ストアが割り当てたIDを返す。
	InsertOne(ctx context.Context, doc any) (*InsertResult, error)
	// UpdateOne はIDで1件のフィールドを上書きする。一致しなくてもエラーにはならない。
	UpdateOne(ctx context.Context, id string, set Fields) (*UpdateResult, error)
	// DeleteOne はIDで1件削除する。一致しなくてもエラーにはならない。
	DeleteOne(ctx context.Context, id string) (*DeleteResult, error)
}

// Store はコレクションを提供するドキュメントストアへの接続。
type Store interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options はストアの接続設定。
type Options struct {
	// Driver は "mongo" または "sqlite"。
	Driver string
	// URI は接続文字列。sqliteの場合はDSN。
	URI string
	// Database はデータベース名（mongoのみ）。
	Database string
}

// Open は設定に応じたストアへ接続し、疎通を確認する。
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "mongo":
		return OpenMongo(ctx, opts.URI, opts.Database)
	case "sqlite":
		return OpenSQLite(ctx, opts.URI)
	default:
		return nil, fmt.Errorf("未対応のストアドライバ: %q", opts.Driver)
	}
}

// NewID は新しいドキュメントIDを生成する。
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID はIDがストアの形式（24桁の16進数）に合っているかを返す。
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validField はフィールド名がトップレベルの単純な名前かを検証する。
func validField(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("不正なフィールド名: %q", name)
	}
	return nil
}

// WithTimeout は各操作にタイムアウトを設定したコレクションを返す。dが0以下ならcをそのまま返す。
func WithTimeout(c Collection, d time.Duration) Collection {
	if d <= 0 {
		return c
	}
	return &timeoutCollection{next: c, timeout: d}
}

type timeoutCollection struct {
	next    Collection
	timeout time.Duration
}

func (t *timeoutCollection) Find(ctx context.Context, filter Filter, out any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Find(ctx, filter, out)
}

func (t *timeoutCollection) FindOne(ctx context.Context, id string, out any, fields ...string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.FindOne(ctx, id, out, fields...)
}

func (t *timeoutCollection) InsertOne(ctx context.Context, doc any) (*InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.InsertOne(ctx, doc)
}

func (t *timeoutCollection) UpdateOne(ctx context.Context, id string, set Fields) (*UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.UpdateOne(ctx, id, set)
}

func (t *timeoutCollection) DeleteOne(ctx context.Context, id string) (*DeleteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DeleteOne(ctx, id)
}
