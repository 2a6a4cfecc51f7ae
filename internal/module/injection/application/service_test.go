package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/injection/domain"
)

// fakeIndex は挿入と永続化の呼び出しを記録する
type fakeIndex struct {
	inserted  []corpus.Chunk
	persisted int
	insertErr error
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]corpus.Candidate, error) {
	return nil, nil
}

func (f *fakeIndex) Insert(_ context.Context, chunk corpus.Chunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunk)
	return nil
}

func (f *fakeIndex) Persist(_ context.Context) error {
	f.persisted++
	return nil
}

// fakeRegistry はEnsureDeltaが固定インデックスを返すDeltaRegistry
type fakeRegistry struct {
	index     *fakeIndex
	ensureErr error
	locks     int
}

func (f *fakeRegistry) LockSlug(_ string) func() {
	f.locks++
	return func() {}
}

func (f *fakeRegistry) EnsureDelta(_ context.Context, _ string) (corpus.Index, error) {
	if f.ensureErr != nil {
		return nil, f.ensureErr
	}
	return f.index, nil
}

// fakeRecorder は記録呼び出しを数え、任意で失敗させられる
type fakeRecorder struct {
	records   int
	recordErr error
	nextID    string
}

func (f *fakeRecorder) Record(_ context.Context, _ domain.Target, _ string, _ corpus.Metadata) (string, error) {
	if f.recordErr != nil {
		return "", f.recordErr
	}
	f.records++
	return f.nextID, nil
}

func (f *fakeRecorder) Reconstruct(_ context.Context, _ domain.Target) ([]corpus.Chunk, error) {
	return nil, nil
}

func (f *fakeRecorder) Targets(_ context.Context) ([]domain.Target, error) {
	return nil, nil
}

func TestInject_WriteThenIndexOrder(t *testing.T) {
	index := &fakeIndex{}
	registry := &fakeRegistry{index: index}
	recorder := &fakeRecorder{nextID: "record-1"}

	svc := NewService(registry, recorder, nil)

	id, err := svc.Inject(context.Background(), InjectParams{
		Project: "k8s",
		Version: "1.2",
		Text:    "X",
	})
	require.NoError(t, err)
	assert.Equal(t, "record-1", id)

	// レコードIDがそのままChunk IDになる
	require.Len(t, index.inserted, 1)
	assert.Equal(t, "record-1", index.inserted[0].ID)
	assert.Equal(t, "X", index.inserted[0].Text)
	assert.Equal(t, 1, index.persisted)
	assert.Equal(t, 1, registry.locks)
}

func TestInject_LogFailureAbortsBeforeIndex(t *testing.T) {
	index := &fakeIndex{}
	registry := &fakeRegistry{index: index}
	recorder := &fakeRecorder{
		recordErr: fmt.Errorf("%w: disk full", domain.ErrStorageWrite),
	}

	svc := NewService(registry, recorder, nil)

	_, err := svc.Inject(context.Background(), InjectParams{
		Project: "k8s",
		Version: "1.2",
		Text:    "X",
	})

	// ログ書き込み失敗時はインデックスに一切触れない
	assert.ErrorIs(t, err, domain.ErrStorageWrite)
	assert.Empty(t, index.inserted)
	assert.Zero(t, index.persisted)
}

func TestInject_InsertFailurePropagates(t *testing.T) {
	index := &fakeIndex{insertErr: errors.New("embedding failed")}
	registry := &fakeRegistry{index: index}
	recorder := &fakeRecorder{nextID: "record-1"}

	svc := NewService(registry, recorder, nil)

	_, err := svc.Inject(context.Background(), InjectParams{
		Project: "k8s",
		Version: "1.2",
		Text:    "X",
	})
	assert.Error(t, err)
	assert.Zero(t, index.persisted)
}

func TestInject_NilMetadataDefaultsToEmpty(t *testing.T) {
	index := &fakeIndex{}
	registry := &fakeRegistry{index: index}
	recorder := &fakeRecorder{nextID: "record-1"}

	svc := NewService(registry, recorder, nil)

	_, err := svc.Inject(context.Background(), InjectParams{
		Project:  "k8s",
		Version:  "1.2",
		Text:     "X",
		Metadata: nil,
	})
	require.NoError(t, err)
	require.Len(t, index.inserted, 1)
	assert.NotNil(t, index.inserted[0].Metadata)
	assert.Empty(t, index.inserted[0].Metadata)
}

func TestInject_InvalidTargetRejected(t *testing.T) {
	svc := NewService(&fakeRegistry{index: &fakeIndex{}}, &fakeRecorder{}, nil)

	_, err := svc.Inject(context.Background(), InjectParams{
		Project: "bad-dot-project",
		Version: "1.0",
		Text:    "X",
	})
	assert.ErrorIs(t, err, corpus.ErrInvalidTarget)
}
