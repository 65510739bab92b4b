package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Sohelrana2815/coffee-store-jwt/pkg/apperr"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にログを出力し、プロセスを落とさずに500エラーを返す。
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("panic", fmt.Sprint(r)).
					Msg("[PANIC] リクエスト処理中にパニックが発生しました")
				AbortWithError(c, apperr.Wrap(apperr.KindInternal, "パニック", fmt.Errorf("%v", r)))
			}
		}()
		c.Next()
	}
}
