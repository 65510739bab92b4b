package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/token"
)

// contextKeyEmail は検証済みメールアドレスをgin.Contextに格納するキー。
const contextKeyEmail = "email"

// TokenVerifier はトークンを検証してクレームを返す。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// CookieAuth はCookieのトークンを検証するステージを返す。
// Cookieが無い場合と検証に失敗した場合はどちらも401とし、外部には区別を見せない。
// 検証に成功した場合、コンテキストに "email" を設定する。
func CookieAuth(verifier TokenVerifier, cookieName string, log zerolog.Logger) Stage {
	return Stage{
		Name: "verifier",
		Guard: func(c *gin.Context) error {
			raw, err := c.Cookie(cookieName)
			if errors.Is(err, http.ErrNoCookie) || raw == "" {
				return apperr.Unauthorized("認証トークンが必要です")
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, token.ErrExpiredToken) {
					reason = "expired"
				}
				log.Info().Str("reason", reason).Msg("トークンの検証に失敗しました")
				return apperr.Unauthorized("認証トークンが無効です")
			}

			c.Set(contextKeyEmail, claims.Email)
			return nil
		},
	}
}

// GetEmail はGinコンテキストから検証済みのメールアドレスを取得する。
// CookieAuthステージが事前に適用されている必要がある。
func GetEmail(c *gin.Context) string {
	email, _ := c.Get(contextKeyEmail)
	if s, ok := email.(string); ok {
		return s
	}
	return ""
}
