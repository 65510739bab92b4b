package shop

import (
	"errors"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
)

// storeError はストアのエラーをHTTPに対応するエラーへ変換する。
func storeError(err error, resource string) error {
	switch {
	case errors.Is(err, docstore.ErrInvalidID):
		return apperr.InvalidIdentifier("IDの形式が不正です")
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound(resource + "が見つかりません")
	default:
		return apperr.StoreFailure(resource+"の操作に失敗しました", err)
	}
}

// requireID はパスパラメータのIDを検証する。
func requireID(id string) error {
	if !docstore.ValidID(id) {
		return apperr.InvalidIdentifier("IDの形式が不正です")
	}
	return nil
}
