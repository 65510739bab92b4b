// Package config は環境変数からサービスの設定を読み込む。
// カレントディレクトリに .env があれば先に読み込む。既に設定済みの環境変数は上書きしない。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ServiceConfig はプロセス全体の設定。
type ServiceConfig struct {
	Name            string        `env:"SERVICE_NAME" envDefault:"coffee-store"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// HTTPConfig はHTTPサーバーの設定。
type HTTPConfig struct {
	Port           string   `env:"PORT" envDefault:"5000"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// StoreConfig はドキュメントストアの設定。
type StoreConfig struct {
	Driver   string        `env:"STORE_DRIVER" envDefault:"mongo"`
	URI      string        `env:"STORE_URI" envDefault:"mongodb://localhost:27017/"`
	Database string        `env:"STORE_DATABASE" envDefault:"coffees_DB"`
	Timeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
}

// AuthConfig はトークンとCookieの設定。
type AuthConfig struct {
	Secret             string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"1h"`
	CookieName         string        `env:"COOKIE_NAME" envDefault:"token"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`
	CookieSameSite     string        `env:"COOKIE_SAMESITE" envDefault:"lax"`
	ProtectOrderWrites bool          `env:"PROTECT_ORDER_WRITES" envDefault:"false"`
}

// CacheConfig は商品キャッシュの設定。Addrが空ならキャッシュを使わない。
type CacheConfig struct {
	Addr string        `env:"REDIS_ADDR"`
	TTL  time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"5m"`
}

// BrokerConfig は注文イベント配信の設定。URLが空なら配信しない。
type BrokerConfig struct {
	URL      string `env:"RABBIT_URL"`
	Exchange string `env:"RABBIT_EXCHANGE" envDefault:"coffee-store.events"`
}

// Config はサービスの全設定。
type Config struct {
	Service ServiceConfig
	HTTP    HTTPConfig
	Store   StoreConfig
	Auth    AuthConfig
	Cache   CacheConfig
	Broker  BrokerConfig
}

// Load は.envファイル（存在すれば）と環境変数から設定を読み込んで検証する。
// filesを省略するとカレントディレクトリの .env を読む。
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}
	return Parse()
}

// Parse は環境変数だけから設定を読み込んで検証する。
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("環境変数の解析に失敗: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "mongo", "sqlite":
	default:
		return fmt.Errorf("STORE_DRIVER は mongo または sqlite: %q", c.Store.Driver)
	}
	if _, err := ParseSameSite(c.Auth.CookieSameSite); err != nil {
		return err
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL は正の値である必要があります: %s", c.Auth.TokenTTL)
	}
	if c.Auth.CookieName == "" {
		return errors.New("COOKIE_NAME が空です")
	}
	return nil
}

// Addr はHTTPサーバーの待ち受けアドレスを返す。
func (c HTTPConfig) Addr() string {
	return ":" + c.Port
}

// SameSite はCookieのSameSite属性を返す。
func (c AuthConfig) SameSite() http.SameSite {
	s, _ := ParseSameSite(c.CookieSameSite)
	return s
}

// ParseSameSite は lax / strict / none をhttp.SameSiteに変換する。
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return http.SameSiteDefaultMode, fmt.Errorf("COOKIE_SAMESITE は lax / strict / none: %q", s)
	}
}
