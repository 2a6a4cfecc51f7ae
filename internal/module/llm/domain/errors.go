package domain

import "errors"

var (
	// ErrProvider はEmbedding/生成プロバイダ側の失敗を表すエラー。
	// タイムアウト・認証・クォータ超過はすべてこのエラーでラップされ、
	// 棄却応答（エビデンス不足）とは区別して呼び出し元へ伝播する。
	ErrProvider = errors.New("llm provider failure")

	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set")
)
