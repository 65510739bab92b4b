package shop

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Sohelrana2815/coffee-store-jwt/internal/broker"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/cache"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/config"
	"github.com/Sohelrana2815/coffee-store-jwt/internal/docstore"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/middleware"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/token"
)

// Deps はサーバーが利用する外部リソース。
type Deps struct {
	// Store はドキュメントストア。必須。
	Store docstore.Store
	// Tokens はトークンの発行と検証を行う。必須。
	Tokens *token.Service
	// Events は注文イベントの配信先。nilなら配信しない。
	Events broker.Publisher
	// Cache は商品キャッシュ。nilならキャッシュしない。
	Cache cache.KV
	// Log はロガー。
	Log zerolog.Logger
}

// Server はコーヒーストアのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg はサービス設定。
	cfg config.Config
	// log はロガー。
	log zerolog.Logger
	// store はヘルスチェックで疎通を確認するストア。
	store docstore.Store
	// tokens はトークンサービス。
	tokens *token.Service
	// coffees は商品コレクション。
	coffees docstore.Collection
	// orders は注文コレクション。
	orders docstore.Collection
	// events は注文イベントの配信先。
	events broker.Publisher
	// now は現在時刻を返す。
	now func() time.Time
}

// NewServer は新しいサーバーを生成する。
// 各コレクション操作にはcfg.Store.Timeoutのタイムアウトを設定する。
func NewServer(cfg config.Config, deps Deps) *Server {
	registerValidators()

	var coffees docstore.Collection = deps.Store.Collection(coffeesCollection)
	if deps.Cache != nil {
		coffees = cache.NewCollection(coffees, deps.Cache, cfg.Cache.TTL, "coffee:", deps.Log)
	}
	events := deps.Events
	if events == nil {
		events = broker.Discard{}
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics(cfg.Service.Name))
	router.Use(middleware.AccessLog(deps.Log))
	router.Use(middleware.Recovery(deps.Log))
	router.Use(middleware.CORS(cfg.HTTP.AllowedOrigins))

	s := &Server{
		router:  router,
		cfg:     cfg,
		log:     deps.Log,
		store:   deps.Store,
		tokens:  deps.Tokens,
		coffees: docstore.WithTimeout(coffees, cfg.Store.Timeout),
		orders:  docstore.WithTimeout(deps.Store.Collection(ordersCollection), cfg.Store.Timeout),
		events:  events,
		now:     time.Now,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルに停止する。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("HTTPサーバーを起動します")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("HTTPサーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Service.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	logStage := middleware.RequestLogger(s.log)
	open := middleware.Gate(s.log, logStage)
	authed := middleware.Gate(s.log, logStage, middleware.CookieAuth(s.tokens, s.cfg.Auth.CookieName, s.log))
	writes := open
	if s.cfg.Auth.ProtectOrderWrites {
		writes = authed
	}

	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Coffee store server is running!")
	})
	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	coffees := s.router.Group("/coffees", open)
	{
		// 商品一覧取得
		coffees.GET("", s.handleListCoffees())
		// 商品詳細取得（名前・価格・画像URLのみ）
		coffees.GET("/:id", s.handleGetCoffee())
	}

	// トークン発行
	s.router.POST("/jwt", open, s.handleIssueToken())
	// ログアウト
	s.router.POST("/logout", open, s.handleLogout())

	orders := s.router.Group("/orders")
	{
		// 注文一覧取得
		orders.GET("", authed, s.handleListOrders())
		// 注文詳細取得
		orders.GET("/:id", authed, s.handleGetOrder())
		// 注文作成
		orders.POST("", writes, s.handlePlaceOrder())
		// 注文ステータス更新
		orders.PATCH("/:id", writes, s.handleUpdateOrderStatus())
		// 注文削除
		orders.DELETE("/:id", writes, s.handleDeleteOrder())
	}
}

// handleHealth はストアへの疎通を含めたヘルスチェックを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if s.cfg.Store.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.Store.Timeout)
			defer cancel()
		}

		if err := s.store.Ping(ctx); err != nil {
			s.log.Warn().Err(err).Msg("ストアへの疎通確認に失敗しました")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": s.cfg.Service.Name})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": s.cfg.Service.Name})
	}
}
