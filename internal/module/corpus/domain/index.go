package domain

import (
	"context"
	"errors"
)

// ErrIndexNotFound は指定されたスラッグの永続化済みインデックスが存在しない場合のエラー
var ErrIndexNotFound = errors.New("index not found")

// Index はひとつのプロジェクト/バージョンに対応する埋め込み済みコーパスを表す。
// 類似度検索と追記のみをサポートし、更新・削除は提供しない。
type Index interface {
	// Search はクエリに類似する上位k件の候補を類似度降順で返す。
	// コーパスがk件に満たない場合はより少ない件数を返す。
	Search(ctx context.Context, query string, k int) ([]Candidate, error)

	// Insert はChunkをインデックスへ追加する。
	// 同一IDでの再挿入は重複を生む（at-least-once追記セマンティクス）。
	Insert(ctx context.Context, chunk Chunk) error

	// Persist はインデックスを永続化する
	Persist(ctx context.Context) error
}

// IndexStore はスラッグをキーとしたインデックスの読み書きを提供する
type IndexStore interface {
	// Load は永続化済みインデックスを読み込む。
	// 存在しない場合はErrIndexNotFoundを返す。
	Load(ctx context.Context, slug string) (Index, error)

	// Create は空のインデックスを新規作成する
	Create(ctx context.Context, slug string) (Index, error)

	// List は永続化済みインデックスのスラッグ一覧を返す
	List(ctx context.Context) ([]string, error)
}
