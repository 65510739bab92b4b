// Package shop はコーヒーストアのREST APIを提供する。
//
// 商品（coffees）の参照と、注文（orders）の作成・一覧・更新・削除を扱う。
// 注文一覧はCookieのトークンで認証し、クエリで指定したメールアドレスが
// 認証済みのメールアドレスと一致する場合だけ返す。
//
// エンドポイント:
//
//	GET    /              稼働確認
//	GET    /health        ストアへの疎通を含むヘルスチェック
//	GET    /metrics       Prometheusメトリクス
//	GET    /coffees       商品一覧
//	GET    /coffees/:id   商品の名前・価格・画像URL
//	POST   /jwt           トークンを発行してCookieに設定
//	POST   /logout        Cookieを破棄
//	GET    /orders        注文一覧（要認証、?email= で絞り込み）
//	GET    /orders/:id    注文詳細（要認証、本人のみ）
//	POST   /orders        注文作成
//	PATCH  /orders/:id    注文ステータス更新
//	DELETE /orders/:id    注文削除
package shop
