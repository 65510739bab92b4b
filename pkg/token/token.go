// Package token はメールアドレスを主張する署名付きの期限付きトークンを発行・検証する。
//
// トークンはHS256で署名したJWTで、サーバー側には保存しない。
// 有効性は署名と有効期限だけで決まるため、期限前に失効させることはできない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はトークンの既定の有効期間。
const DefaultTTL = time.Hour

// issuer はトークンの発行者名。
const issuer = "coffee-store"

var (
	// ErrInvalidToken は署名不一致・形式不正などでトークンが無効であることを表す。
	ErrInvalidToken = errors.New("トークンが無効です")
	// ErrExpiredToken はトークンの有効期限が切れていることを表す。
	ErrExpiredToken = errors.New("トークンの有効期限が切れています")
)

// Claims はトークンのクレーム（ペイロード）を表す。
type Claims struct {
	jwt.RegisteredClaims
	// Email は認証済みユーザーのメールアドレス。
	Email string `json:"email"`
}

// Service はトークンの発行と検証を行う。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option は Service の設定を変更する。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService は新しい Service を生成する。ttlが0以下の場合は DefaultTTL を使う。
func NewService(secret string, ttl time.Duration, opts ...Option) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL はトークンの有効期間を返す。
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue はメールアドレスからトークンを生成する。
func (s *Service) Issue(email string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   email,
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Verify はトークンを検証し、クレームを返す。
// 期限切れの場合は ErrExpiredToken、それ以外の失敗は ErrInvalidToken を返す。
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
