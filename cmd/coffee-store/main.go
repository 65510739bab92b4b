// コーヒーストアAPIのエントリポイント。
// 商品の参照と注文の管理を行い、注文一覧はCookieのトークンで保護する。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/broker"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/cache"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/config"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/shop"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/logger"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/token"
)

// connectTimeout は起動時の外部接続の上限時間。
const connectTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Service.Name, cfg.Service.LogLevel, cfg.Service.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("コーヒーストアサービスの起動に失敗")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	store, err := docstore.Open(connectCtx, docstore.Options{
		Driver:   cfg.Store.Driver,
		URI:      cfg.Store.URI,
		Database: cfg.Store.Database,
	})
	if err != nil {
		return fmt.Errorf("ストアへの接続に失敗: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("ストアの切断に失敗")
		}
	}()
	log.Info().Str("driver", cfg.Store.Driver).Str("database", cfg.Store.Database).Msg("ストアに接続しました")

	deps := shop.Deps{
		Store:  store,
		Tokens: token.NewService(cfg.Auth.Secret, cfg.Auth.TokenTTL),
		Log:    log,
	}

	if cfg.Cache.Addr != "" {
		rdb := cache.New(cfg.Cache.Addr)
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(connectCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.Addr).Msg("Redisに接続できないため商品キャッシュを無効にします")
		} else {
			deps.Cache = rdb
			log.Info().Str("addr", cfg.Cache.Addr).Dur("ttl", cfg.Cache.TTL).Msg("商品キャッシュを有効にしました")
		}
	}

	if cfg.Broker.URL != "" {
		rabbit, err := broker.DialRabbit(cfg.Broker.URL, cfg.Broker.Exchange)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQに接続できないため注文イベントを配信しません")
		} else {
			defer func() { _ = rabbit.Close() }()
			deps.Events = rabbit
			log.Info().Str("exchange", cfg.Broker.Exchange).Msg("注文イベントの配信を有効にしました")
		}
	}

	if !cfg.Auth.ProtectOrderWrites {
		log.Warn().Msg("注文の作成・更新・削除は認証なしで実行できます（PROTECT_ORDER_WRITES=true で保護）")
	}
	if !cfg.Auth.CookieSecure {
		log.Warn().Msg("CookieのSecure属性が無効です（COOKIE_SECURE=true で有効化）")
	}

	server := shop.NewServer(cfg, deps)
	return server.Run(ctx)
}
