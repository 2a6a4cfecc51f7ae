package domain

import "context"

// ロールの種別。スレッドにはこの2種類のメッセージのみが追記される。
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message はスレッド内の1メッセージ
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store はスレッド履歴の読み書きを提供する。
// 履歴は追記専用で、1回の応答につきuser/assistantの2メッセージが追加される。
type Store interface {
	// Load は指定スレッドの履歴を返す。存在しない場合は空のスライスを返す。
	Load(ctx context.Context, threadSlug string) ([]Message, error)

	// AppendExchange はユーザー入力と応答を履歴へ追記して永続化し、
	// インメモリキャッシュも更新する。
	AppendExchange(ctx context.Context, threadSlug, userContent, assistantContent string) error
}
