package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
)

// Kind はインデックスの種別（ベース/デルタ）
type Kind string

const (
	// KindBase はビルド時に構築される静的コーパス
	KindBase Kind = "base"

	// KindDelta はインジェクションで成長する動的コーパス
	KindDelta Kind = "delta"
)

// Store はcorpus.IndexStoreのPostgreSQL+pgvector実装。
// ベース/デルタは同一テーブルをkindカラムで区別し、Storeインスタンスごとに固定する。
type Store struct {
	pool     *pgxpool.Pool
	embedder llm.Embedder
	kind     Kind
}

// NewStore は新しいStoreを作成する
func NewStore(pool *pgxpool.Pool, embedder llm.Embedder, kind Kind) *Store {
	return &Store{
		pool:     pool,
		embedder: embedder,
		kind:     kind,
	}
}

// EnsureSchema はテーブルと拡張を作成する（起動時に一度呼ぶ）
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS corpus_chunks (
			seq BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			chunk_id TEXT NOT NULL,
			slug TEXT NOT NULL,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.embedder.Dimension()),
		`CREATE INDEX IF NOT EXISTS idx_corpus_chunks_slug_kind ON corpus_chunks (slug, kind)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Load はcorpus.IndexStoreの実装。
// 1件もChunkを持たないスラッグはErrIndexNotFound扱いとする。
func (s *Store) Load(ctx context.Context, slug string) (corpus.Index, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM corpus_chunks WHERE slug = $1 AND kind = $2)`,
		slug, string(s.kind),
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check index existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", corpus.ErrIndexNotFound, slug)
	}

	return s.newIndex(slug), nil
}

// Create はcorpus.IndexStoreの実装。
// 行はInsert時に作られるため、ハンドルを返すだけでよい。
func (s *Store) Create(_ context.Context, slug string) (corpus.Index, error) {
	return s.newIndex(slug), nil
}

// List はcorpus.IndexStoreの実装
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT slug FROM corpus_chunks WHERE kind = $1 ORDER BY slug`,
		string(s.kind),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slugs: %w", err)
	}
	return slugs, nil
}

func (s *Store) newIndex(slug string) *Index {
	return &Index{
		pool:     s.pool,
		embedder: s.embedder,
		slug:     slug,
		kind:     s.kind,
	}
}

// インターフェース実装の確認
var _ corpus.IndexStore = (*Store)(nil)
