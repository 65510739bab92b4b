package shop

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
	"github.com/Sohelrana2815/coffee-store-jwt/pkg/middleware"
)

// handleIssueToken はメールアドレスに対するトークンを発行し、http-onlyのCookieに設定する。
// トークン本体はレスポンスボディに含めない。
func (s *Server) handleIssueToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req issueTokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.AbortWithError(c, apperr.InvalidInput(describeBindError(err), err))
			return
		}

		signed, err := s.tokens.Issue(req.Email)
		if err != nil {
			middleware.AbortWithError(c, apperr.Wrap(apperr.KindInternal, "トークンの発行に失敗しました", err))
			return
		}

		s.setTokenCookie(c, signed, int(s.tokens.TTL().Seconds()))
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// handleLogout はトークンのCookieを破棄する。
// トークン自体は失効しないため、期限までは有効なまま残る。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.setTokenCookie(c, "", -1)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (s *Server) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(s.cfg.Auth.SameSite())
	c.SetCookie(s.cfg.Auth.CookieName, value, maxAge, "/", "", s.cfg.Auth.CookieSecure, true)
}
