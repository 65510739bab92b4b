// 商品データをストアに登録するコマンド。
// 商品はHTTPからは登録できないため、JSON配列のファイルから coffees コレクションへ追加する。
//
//	seed -file coffees.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/config"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/shop"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/logger"
)

func main() {
	file := flag.String("file", "coffees.json", "商品のJSON配列ファイル")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Service.Name+"-seed", cfg.Service.LogLevel, cfg.Service.LogFormat)

	n, err := run(cfg, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Int("inserted", n).Msg("商品の登録に失敗")
	}
	log.Info().Str("file", *file).Int("inserted", n).Msg("商品を登録しました")
}

func run(cfg config.Config, file string) (int, error) {
	products, err := readProducts(file)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := docstore.Open(ctx, docstore.Options{
		Driver:   cfg.Store.Driver,
		URI:      cfg.Store.URI,
		Database: cfg.Store.Database,
	})
	if err != nil {
		return 0, fmt.Errorf("ストアへの接続に失敗: %w", err)
	}
	defer func() { _ = store.Close(context.Background()) }()

	ids, err := shop.SeedProducts(ctx, store, products)
	return len(ids), err
}

func readProducts(path string) ([]shop.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []shop.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("JSONの解析に失敗: %w", err)
	}
	return products, nil
}
