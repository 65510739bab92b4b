// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// ルート単位で適用するアクセスゲート（ログ出力ステージとCookieトークン検証ステージ）、
// リクエストID付与、アクセスログ、メトリクス計測、パニックリカバリ、
// CORS設定を含む。エラーレスポンスの形式は AbortWithError に一元化する。
package middleware
