package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/indexing/domain"
)

type memoryIndex struct {
	chunks    []corpus.Chunk
	persisted bool
	insertErr error
}

func (m *memoryIndex) Search(ctx context.Context, query string, k int) ([]corpus.Candidate, error) {
	return nil, nil
}

func (m *memoryIndex) Insert(ctx context.Context, chunk corpus.Chunk) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *memoryIndex) Persist(ctx context.Context) error {
	m.persisted = true
	return nil
}

type memoryStore struct {
	created map[string]*memoryIndex
}

func newMemoryStore() *memoryStore {
	return &memoryStore{created: make(map[string]*memoryIndex)}
}

func (m *memoryStore) Load(ctx context.Context, slug string) (corpus.Index, error) {
	idx, ok := m.created[slug]
	if !ok {
		return nil, corpus.ErrIndexNotFound
	}
	return idx, nil
}

func (m *memoryStore) Create(ctx context.Context, slug string) (corpus.Index, error) {
	idx := &memoryIndex{}
	m.created[slug] = idx
	return idx, nil
}

func (m *memoryStore) List(ctx context.Context) ([]string, error) {
	slugs := make([]string, 0, len(m.created))
	for slug := range m.created {
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

type staticSource struct {
	name  string
	files []domain.SourceFile
	err   error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Files(ctx context.Context) ([]domain.SourceFile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.files, nil
}

func TestBuildService_Build(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(store)
	source := &staticSource{
		name: "testdata",
		files: []domain.SourceFile{
			{Path: "docs/a.md", Content: []byte("alpha\n\nbeta"), ContentType: "text/markdown"},
			{Path: "docs/b.md", Content: []byte("gamma"), ContentType: "text/markdown"},
		},
	}

	result, err := service.Build(context.Background(), "k8s", "1.2", source)

	require.NoError(t, err)
	assert.Equal(t, "k8s-1-dot-2", result.Slug)
	assert.Equal(t, 2, result.FileCount)
	assert.Equal(t, 2, result.ChunkCount)

	idx := store.created["k8s-1-dot-2"]
	require.NotNil(t, idx)
	assert.True(t, idx.persisted)
	require.Len(t, idx.chunks, 2)

	first := idx.chunks[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "alpha\n\nbeta", first.Text)
	path, ok := first.Metadata["path"].String()
	require.True(t, ok)
	assert.Equal(t, "docs/a.md", path)
	contentType, ok := first.Metadata["content_type"].String()
	require.True(t, ok)
	assert.Equal(t, "text/markdown", contentType)
	chunkIndex, ok := first.Metadata["chunk_index"].Number()
	require.True(t, ok)
	assert.Equal(t, float64(0), chunkIndex)
}

func TestBuildService_Build_SplitsLargeFiles(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(store, WithChunkSize(10))
	source := &staticSource{
		name: "testdata",
		files: []domain.SourceFile{
			{Path: "big.txt", Content: []byte(strings.Repeat("x", 25)), ContentType: "text/plain"},
		},
	}

	result, err := service.Build(context.Background(), "proj", "", source)

	require.NoError(t, err)
	assert.Equal(t, "proj", result.Slug)
	assert.Equal(t, 3, result.ChunkCount)

	idx := store.created["proj"]
	require.Len(t, idx.chunks, 3)
	for i, chunk := range idx.chunks {
		chunkIndex, ok := chunk.Metadata["chunk_index"].Number()
		require.True(t, ok)
		assert.Equal(t, float64(i), chunkIndex)
	}
}

func TestBuildService_Build_UniqueChunkIDs(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(store, WithChunkSize(5))
	source := &staticSource{
		name: "testdata",
		files: []domain.SourceFile{
			{Path: "a.txt", Content: []byte(strings.Repeat("y", 20)), ContentType: "text/plain"},
		},
	}

	_, err := service.Build(context.Background(), "proj", "2.0", source)

	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, chunk := range store.created["proj-2-dot-0"].chunks {
		assert.False(t, seen[chunk.ID])
		seen[chunk.ID] = true
	}
}

func TestBuildService_Build_SourceError(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(store)
	source := &staticSource{name: "broken", err: errors.New("walk failed")}

	_, err := service.Build(context.Background(), "proj", "", source)

	require.Error(t, err)
	assert.Empty(t, store.created)
}

func TestBuildService_Build_InvalidTarget(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(store)
	source := &staticSource{name: "testdata"}

	_, err := service.Build(context.Background(), "bad-dot-name", "", source)

	require.ErrorIs(t, err, corpus.ErrInvalidTarget)
	assert.Empty(t, store.created)
}

func TestBuildService_Build_InsertErrorAborts(t *testing.T) {
	store := newMemoryStore()
	service := NewBuildService(&failingCreateStore{inner: store})
	source := &staticSource{
		name: "testdata",
		files: []domain.SourceFile{
			{Path: "a.txt", Content: []byte("content"), ContentType: "text/plain"},
		},
	}

	_, err := service.Build(context.Background(), "proj", "", source)

	require.Error(t, err)
	idx := store.created["proj"]
	require.NotNil(t, idx)
	assert.False(t, idx.persisted)
}

type failingCreateStore struct {
	inner *memoryStore
}

func (f *failingCreateStore) Load(ctx context.Context, slug string) (corpus.Index, error) {
	return f.inner.Load(ctx, slug)
}

func (f *failingCreateStore) Create(ctx context.Context, slug string) (corpus.Index, error) {
	idx := &memoryIndex{insertErr: errors.New("disk full")}
	f.inner.created[slug] = idx
	return idx, nil
}

func (f *failingCreateStore) List(ctx context.Context) ([]string, error) {
	return f.inner.List(ctx)
}
