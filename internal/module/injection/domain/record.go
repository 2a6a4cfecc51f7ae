package domain

import (
	"context"
	"errors"
	"time"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
)

// ErrStorageWrite はインジェクションログの書き込み失敗を表すエラー。
// ログが正となるため、このエラーが出た場合インデックスへの反映は行わない。
var ErrStorageWrite = errors.New("injection log write failure")

// Target はインジェクション対象のプロジェクト/バージョンの組
type Target struct {
	Project string
	Version string
}

// Record は投入されたコンテンツ1件を表す追記専用のログエントリ。
// デルタコーパスを再構築する際の唯一の情報源となる。
type Record struct {
	// ID はレコードの一意識別子。対応するChunkのIDとして使われる。
	ID string `json:"id"`

	// Timestamp は記録時刻
	Timestamp time.Time `json:"timestamp"`

	// Text は投入された本文
	Text string `json:"text"`

	// Metadata は投入時に付与されたメタデータ
	Metadata corpus.Metadata `json:"metadata"`
}

// Recorder はインジェクションログの書き込みと再構築を提供する
type Recorder interface {
	// Record は投入内容をログへ追記し、生成したレコードIDを返す。
	// 書き込みが失敗した場合はErrStorageWriteでラップされたエラーを返し、
	// 呼び出し元はインデックスへの反映を中止しなければならない。
	Record(ctx context.Context, target Target, text string, metadata corpus.Metadata) (string, error)

	// Reconstruct はログからデルタコーパスのChunk列を再構築する。
	// パースできない行は警告を出してスキップし、処理は継続する。
	// ファイル内の順序は追記順で安定している。
	Reconstruct(ctx context.Context, target Target) ([]corpus.Chunk, error)

	// Targets はログが存在するプロジェクト/バージョンの一覧を返す
	Targets(ctx context.Context) ([]Target, error)
}
