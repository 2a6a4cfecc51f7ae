package vectorfile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
)

// indexFileName はインデックス本体のファイル名
const indexFileName = "index.json"

// entry はChunkと埋め込みベクトルの組（永続化形式）
type entry struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Metadata corpus.Metadata `json:"metadata,omitempty"`
	Vector   []float32       `json:"vector"`
}

// Index はファイル永続化されるインプロセスのベクトルインデックス。
// 検索は総当たりのコサイン類似度で行う。コーパス規模が小さい前提の実装。
type Index struct {
	dir      string
	embedder llm.Embedder

	mu      sync.RWMutex
	entries []entry
}

// Search はcorpus.Indexの実装。類似度降順で上位k件を返す。
func (idx *Index) Search(ctx context.Context, query string, k int) ([]corpus.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}

	queryVector, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type scored struct {
		entry entry
		score float64
	}
	results := make([]scored, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, scored{entry: e, score: cosineSimilarity(queryVector, e.Vector)})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > k {
		results = results[:k]
	}

	candidates := make([]corpus.Candidate, 0, len(results))
	for _, r := range results {
		score := r.score
		candidates = append(candidates, corpus.Candidate{
			Chunk: corpus.Chunk{
				ID:       r.entry.ID,
				Text:     r.entry.Text,
				Metadata: r.entry.Metadata,
			},
			Score: &score,
		})
	}
	return candidates, nil
}

// Insert はcorpus.Indexの実装。同一IDの再挿入は重複エントリになる。
func (idx *Index) Insert(ctx context.Context, chunk corpus.Chunk) error {
	vector, err := idx.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("failed to embed chunk: %w", err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.entries = append(idx.entries, entry{
		ID:       chunk.ID,
		Text:     chunk.Text,
		Metadata: chunk.Metadata,
		Vector:   vector,
	})
	return nil
}

// Persist はcorpus.Indexの実装。
// 一時ファイルへ書き出してからリネームすることで途中失敗時の破損を防ぐ。
func (idx *Index) Persist(_ context.Context) error {
	idx.mu.RLock()
	data, err := json.Marshal(idx.entries)
	idx.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(idx.dir, indexFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(idx.dir, indexFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace index file: %w", err)
	}
	return nil
}

// Size は現在のエントリ数を返す
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// cosineSimilarity は2ベクトルのコサイン類似度を返す。
// ゼロベクトルや次元不一致の場合は0を返す。
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// インターフェース実装の確認
var _ corpus.Index = (*Index)(nil)
