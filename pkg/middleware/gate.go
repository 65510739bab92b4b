package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Stage はアクセスゲートを構成する名前付きのガード。
// Guard が nil を返すと次のステージへ進み、エラーを返すとその時点で処理を中断する。
type Stage struct {
	// Name はログに出力するステージ名。
	Name string
	// Guard はリクエストを検査する関数。
	Guard func(c *gin.Context) error
}

// Gate はステージを登録順に実行するGinミドルウェアを返す。
// いずれかのステージが失敗した場合、後続のステージとハンドラは実行されない。
func Gate(log zerolog.Logger, stages ...Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, st := range stages {
			if err := st.Guard(c); err != nil {
				log.Debug().
					Str("stage", st.Name).
					Str("path", c.Request.URL.Path).
					Err(err).
					Msg("アクセスゲートでリクエストを拒否しました")
				AbortWithError(c, err)
				return
			}
		}
		c.Next()
	}
}

// RequestLogger はリクエストのメタデータを記録するステージを返す。
// 処理を中断することはない。
func RequestLogger(log zerolog.Logger) Stage {
	return Stage{
		Name: "logger",
		Guard: func(c *gin.Context) error {
			log.Debug().
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("request_id", GetRequestID(c)).
				Bool("has_cookie", len(c.Request.Cookies()) > 0).
				Msg("ゲートを通過するリクエスト")
			return nil
		},
	}
}
