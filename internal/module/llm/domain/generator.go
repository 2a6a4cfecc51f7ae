package domain

import "context"

// GenerateParams はテキスト生成のパラメータ
type GenerateParams struct {
	// Prompt は生成モデルへ渡すプロンプト全文
	Prompt string

	// Temperature は生成の温度パラメータ（0で決定的）
	Temperature float64
}

// Generator はプロンプトからテキストを生成するインターフェース
type Generator interface {
	// Generate はプロンプトに対する生成結果をそのまま返す。
	// プロバイダ側の失敗（認証・クォータ・タイムアウト）はErrProviderでラップされる。
	Generate(ctx context.Context, params GenerateParams) (string, error)
}
