package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
)

// stubIndex は固定の候補列を返すテスト用インデックス
type stubIndex struct {
	candidates []corpus.Candidate
	err        error
}

func (s *stubIndex) Search(_ context.Context, _ string, k int) ([]corpus.Candidate, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.candidates) > k {
		return s.candidates[:k], nil
	}
	return s.candidates, nil
}

func (s *stubIndex) Insert(_ context.Context, _ corpus.Chunk) error { return nil }
func (s *stubIndex) Persist(_ context.Context) error                { return nil }

func TestMerge_BaseFirstThenDelta(t *testing.T) {
	base := &stubIndex{candidates: []corpus.Candidate{
		candidate("base-1", 0.9),
		candidate("base-2", 0.6),
	}}
	delta := &stubIndex{candidates: []corpus.Candidate{
		candidate("delta-1", 0.95),
	}}

	merged, err := Merge(context.Background(), base, delta, "q", 5)
	require.NoError(t, err)

	// デルタのスコアが高くても並べ替えは行わず、ベースが先に来る
	require.Len(t, merged, 3)
	assert.Equal(t, "base-1", merged[0].Chunk.ID)
	assert.Equal(t, "base-2", merged[1].Chunk.ID)
	assert.Equal(t, "delta-1", merged[2].Chunk.ID)
}

func TestMerge_NoDeltaIndex(t *testing.T) {
	base := &stubIndex{candidates: []corpus.Candidate{candidate("base-1", 0.9)}}

	merged, err := Merge(context.Background(), base, nil, "q", 5)
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestMerge_DuplicateChunksAreKept(t *testing.T) {
	// 再インジェクションで両インデックスに同じChunkがある場合、候補は2件になる
	shared := candidate("dup", 0.8)
	base := &stubIndex{candidates: []corpus.Candidate{shared}}
	delta := &stubIndex{candidates: []corpus.Candidate{shared}}

	merged, err := Merge(context.Background(), base, delta, "q", 5)
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestMerge_RespectsPerIndexK(t *testing.T) {
	base := &stubIndex{candidates: []corpus.Candidate{
		candidate("b1", 0.9), candidate("b2", 0.8), candidate("b3", 0.7),
	}}
	delta := &stubIndex{candidates: []corpus.Candidate{
		candidate("d1", 0.9), candidate("d2", 0.8), candidate("d3", 0.7),
	}}

	merged, err := Merge(context.Background(), base, delta, "q", 2)
	require.NoError(t, err)

	// グローバルなkは適用されず、各インデックスからk件ずつで最大2k件
	assert.Len(t, merged, 4)
}

func TestMerge_BaseSearchErrorPropagates(t *testing.T) {
	base := &stubIndex{err: errors.New("index failure")}

	_, err := Merge(context.Background(), base, nil, "q", 5)
	assert.Error(t, err)
}
