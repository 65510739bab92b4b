package shop

import (
	"context"
	"fmt"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
)

// SeedProducts は商品をcoffeesコレクションに順に追加し、割り当てられたIDを返す。
// 名前の無い商品や価格が負の商品があれば何も追加せずにエラーを返す。
// 追加の途中で失敗した場合は、それまでに追加したIDとエラーを返す。
func SeedProducts(ctx context.Context, store docstore.Store, products []Product) ([]string, error) {
	for i, p := range products {
		if p.Name == "" {
			return nil, apperr.InvalidInput(fmt.Sprintf("%d件目の商品に名前がありません", i+1), nil)
		}
		if p.Price < 0 {
			return nil, apperr.InvalidInput(fmt.Sprintf("%d件目の商品の価格が負です", i+1), nil)
		}
	}

	coll := store.Collection(coffeesCollection)
	ids := make([]string, 0, len(products))
	for _, p := range products {
		p.ID = ""
		res, err := coll.InsertOne(ctx, p)
		if err != nil {
			return ids, storeError(err, "商品")
		}
		ids = append(ids, res.InsertedID)
	}
	return ids, nil
}
