package models

import "errors"

// レポート・キャッシュ系の既知エラー。
// ハンドラ側でerrors.Isによりステータスコードへ変換します。
var (
	// ErrInvalidRange 日付範囲の形式不正・逆転
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidGranularity 未知のバケット粒度
	ErrInvalidGranularity = errors.New("invalid granularity")

	// ErrNotFound 結果セットが空（エラーではなくレポート上のシグナル。
	// 「売上ゼロ」と「クエリ失敗」を呼び出し側が区別できるようにするためのもの）
	ErrNotFound = errors.New("no data found")

	// ErrUnsupportedFormat 未知のエクスポート形式
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// ErrExportWrite エクスポートのストリーム書き込み失敗
	ErrExportWrite = errors.New("failed to write export stream")

	// ErrCacheUnavailable キャッシュバックエンド障害。内部でのみ使用し、
	// 呼び出し側には決して伝播させない（常にキャッシュミスとして扱う）。
	ErrCacheUnavailable = errors.New("cache unavailable")
)
