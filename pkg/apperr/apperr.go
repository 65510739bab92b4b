// Package apperr はAPIで扱うエラーの分類とHTTPステータスへの対応付けを提供する。
//
// ハンドラやミドルウェアは失敗をこのパッケージの Error として返し、
// レスポンスへの変換は middleware.AbortWithError に一元化する。
package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの種類を表す。
type Kind string

const (
	// KindUnauthorized はトークンが無い・無効・期限切れであることを表す。
	KindUnauthorized Kind = "Unauthorized"
	// KindForbidden は認証済みだが対象リソースへの権限が無いことを表す。
	KindForbidden Kind = "Forbidden"
	// KindInvalidIdentifier はリソースIDの形式が不正であることを表す。
	KindInvalidIdentifier Kind = "InvalidIdentifier"
	// KindInvalidInput はリクエストボディやクエリが不正であることを表す。
	KindInvalidInput Kind = "InvalidInput"
	// KindNotFound はリソースが存在しないことを表す。
	KindNotFound Kind = "NotFound"
	// KindStoreFailure はドキュメントストアの操作に失敗したことを表す。
	KindStoreFailure Kind = "StoreFailure"
	// KindInternal はその他の内部エラーを表す。
	KindInternal Kind = "Internal"
)

// Error は種類とクライアント向けメッセージを持つエラー。
type Error struct {
	// Kind はエラーの種類。
	Kind Kind
	// Message はレスポンスに含めるメッセージ。
	Message string
	// Err は原因となったエラー。レスポンスには含めない。
	Err error
}

// Error はエラーメッセージを返す。
func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

// Unwrap は原因となったエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// New は原因を持たないエラーを生成する。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因となるエラーを保持したエラーを生成する。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Unauthorized は401相当のエラーを生成する。
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }

// Forbidden は403相当のエラーを生成する。
func Forbidden(message string) *Error { return New(KindForbidden, message) }

// InvalidIdentifier は不正なIDを表すエラーを生成する。
func InvalidIdentifier(message string) *Error { return New(KindInvalidIdentifier, message) }

// InvalidInput は不正な入力を表すエラーを生成する。
func InvalidInput(message string, err error) *Error { return Wrap(KindInvalidInput, message, err) }

// NotFound はリソースが見つからないことを表すエラーを生成する。
func NotFound(message string) *Error { return New(KindNotFound, message) }

// StoreFailure はストア操作の失敗を表すエラーを生成する。
func StoreFailure(message string, err error) *Error { return Wrap(KindStoreFailure, message, err) }

// KindOf はエラーの種類を返す。Error でなければ KindInternal を返す。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus はエラーに対応するHTTPステータスコードを返す。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindInvalidIdentifier, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage はクライアントに返してよいメッセージを返す。
// 500系のエラーは原因を隠して固定メッセージにする。
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || HTTPStatus(err) >= http.StatusInternalServerError {
		return "内部サーバーエラーが発生しました"
	}
	return e.Message
}
