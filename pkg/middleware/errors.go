package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
)

// AbortWithError はエラーの種類に応じたステータスコードとJSONボディで処理を中断する。
// 原因のエラーはアクセスログに出力するため gin.Context に記録する。
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.PublicMessage(err),
	})
}
