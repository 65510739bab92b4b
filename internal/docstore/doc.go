// Package docstore はドキュメントストアへの汎用的なアクセスを提供する。
//
// コレクション単位で find / findOne / insertOne / updateOne / deleteOne を扱い、
// ドキュメントは24桁の16進数IDで識別する。本番ではMongoDB、
// 組み込み用途とテストではSQLite上のJSONドキュメントとして実装する。
//
// ストアは単一ドキュメントの読み書きが原子的であることだけを保証する。
// 複数ドキュメントにまたがるトランザクションは扱わない。
package docstore
