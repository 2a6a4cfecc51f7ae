package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
)

// Index はひとつのスラッグ/種別に対応するpgvectorインデックスのハンドル
type Index struct {
	pool     *pgxpool.Pool
	embedder llm.Embedder
	slug     string
	kind     Kind
}

// Search はcorpus.Indexの実装。
// コサイン距離演算子(<=>)で上位k件を取得し、スコアは 1 - 距離 で返す。
func (idx *Index) Search(ctx context.Context, query string, k int) ([]corpus.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := idx.pool.Query(ctx,
		`SELECT chunk_id, content, metadata, 1 - (embedding <=> $1) AS score
		 FROM corpus_chunks
		 WHERE slug = $2 AND kind = $3
		 ORDER BY embedding <=> $1
		 LIMIT $4`,
		pgvector.NewVector(queryVector), idx.slug, string(idx.kind), k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var candidates []corpus.Candidate
	for rows.Next() {
		var (
			chunkID  string
			content  string
			metaJSON []byte
			score    float64
		)
		if err := rows.Scan(&chunkID, &content, &metaJSON, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}

		var metadata corpus.Metadata
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &metadata); err != nil {
				return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
			}
		}

		s := score
		candidates = append(candidates, corpus.Candidate{
			Chunk: corpus.Chunk{
				ID:       chunkID,
				Text:     content,
				Metadata: metadata,
			},
			Score: &s,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}
	return candidates, nil
}

// Insert はcorpus.Indexの実装。
// 同一chunk_idの再挿入は新しい行になる（at-least-once追記セマンティクス）。
func (idx *Index) Insert(ctx context.Context, chunk corpus.Chunk) error {
	vector, err := idx.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk: %w", err)
	}

	metadata := chunk.Metadata
	if metadata == nil {
		metadata = corpus.Metadata{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode chunk metadata: %w", err)
	}

	_, err = idx.pool.Exec(ctx,
		`INSERT INTO corpus_chunks (chunk_id, slug, kind, content, metadata, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID, idx.slug, string(idx.kind), chunk.Text, metaJSON, pgvector.NewVector(vector),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// Persist はcorpus.Indexの実装。
// 行はInsert時点で永続化されているため何もしない。
func (idx *Index) Persist(_ context.Context) error {
	return nil
}

// インターフェース実装の確認
var _ corpus.Index = (*Index)(nil)
