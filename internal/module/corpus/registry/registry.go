package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	injection "github.com/jinford/kb-assistant/internal/module/injection/domain"
)

// SlugError は特定スラッグの読み込み失敗を表す
type SlugError struct {
	Slug string
	Err  error
}

// Report は起動時ロードの結果。部分的に縮退したスラッグも列挙する。
type Report struct {
	BaseLoaded  []string
	DeltaLoaded []string
	Degraded    []SlugError
}

// Registry はスラッグからベース/デルタインデックスへのプロセス内マッピングを保持する。
// マップ本体はRWMutexで守り、同一スラッグへの書き込みはスラッグ単位のロックで直列化する。
type Registry struct {
	baseStore  corpus.IndexStore
	deltaStore corpus.IndexStore
	recorder   injection.Recorder
	logger     *slog.Logger

	mu    sync.RWMutex
	base  map[string]corpus.Index
	delta map[string]corpus.Index

	lockMu    sync.Mutex
	slugLocks map[string]*sync.Mutex
}

// New は新しいRegistryを作成する
func New(baseStore, deltaStore corpus.IndexStore, recorder injection.Recorder, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		baseStore:  baseStore,
		deltaStore: deltaStore,
		recorder:   recorder,
		logger:     logger,
		base:       make(map[string]corpus.Index),
		delta:      make(map[string]corpus.Index),
		slugLocks:  make(map[string]*sync.Mutex),
	}
}

// LoadAll は永続化済みの全インデックスを読み込む。
// 個々のスラッグの失敗は縮退として記録して続行し、プロセス全体は止めない。
func (r *Registry) LoadAll(ctx context.Context) (*Report, error) {
	report := &Report{}

	baseSlugs, err := r.baseStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list base indexes: %w", err)
	}
	for _, slug := range baseSlugs {
		index, err := r.baseStore.Load(ctx, slug)
		if err != nil {
			r.logger.Warn("could not load base index", "slug", slug, "error", err)
			report.Degraded = append(report.Degraded, SlugError{Slug: slug, Err: err})
			continue
		}
		r.mu.Lock()
		r.base[slug] = index
		r.mu.Unlock()
		report.BaseLoaded = append(report.BaseLoaded, slug)
		r.logger.Info("loaded base index", "slug", slug)
	}

	deltaSlugs, err := r.deltaStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list delta indexes: %w", err)
	}
	for _, slug := range deltaSlugs {
		index, err := r.deltaStore.Load(ctx, slug)
		if err != nil {
			r.logger.Warn("could not load delta index", "slug", slug, "error", err)
			report.Degraded = append(report.Degraded, SlugError{Slug: slug, Err: err})
			continue
		}
		r.mu.Lock()
		r.delta[slug] = index
		r.mu.Unlock()
		report.DeltaLoaded = append(report.DeltaLoaded, slug)
		r.logger.Info("loaded delta index", "slug", slug)
	}

	// 永続化済みデルタが存在しないターゲットは、インジェクションログから再構築する
	if r.recorder != nil {
		targets, err := r.recorder.Targets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list injection targets: %w", err)
		}
		for _, target := range targets {
			slug := corpus.ResolveSlug(target.Project, target.Version)
			if _, ok := r.Delta(slug); ok {
				continue
			}
			if err := r.rebuildDelta(ctx, slug, target); err != nil {
				r.logger.Warn("could not rebuild delta index from injection log",
					"slug", slug, "error", err)
				report.Degraded = append(report.Degraded, SlugError{Slug: slug, Err: err})
				continue
			}
			report.DeltaLoaded = append(report.DeltaLoaded, slug)
		}
	}

	return report, nil
}

// rebuildDelta はインジェクションログを正としてデルタインデックスを作り直す
func (r *Registry) rebuildDelta(ctx context.Context, slug string, target injection.Target) error {
	chunks, err := r.recorder.Reconstruct(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to reconstruct delta corpus: %w", err)
	}
	if len(chunks) == 0 {
		return nil
	}

	index, err := r.deltaStore.Create(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to create delta index: %w", err)
	}
	for _, chunk := range chunks {
		if err := index.Insert(ctx, chunk); err != nil {
			return fmt.Errorf("failed to insert reconstructed chunk: %w", err)
		}
	}
	if err := index.Persist(ctx); err != nil {
		return fmt.Errorf("failed to persist rebuilt delta index: %w", err)
	}

	r.mu.Lock()
	r.delta[slug] = index
	r.mu.Unlock()

	r.logger.Info("rebuilt delta index from injection log", "slug", slug, "chunks", len(chunks))
	return nil
}

// Base は指定スラッグのベースインデックスを返す
func (r *Registry) Base(slug string) (corpus.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, ok := r.base[slug]
	return index, ok
}

// Delta は指定スラッグのデルタインデックスを返す
func (r *Registry) Delta(slug string) (corpus.Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, ok := r.delta[slug]
	return index, ok
}

// SetBase はベースインデックスを登録する（コーパス構築後に使用）
func (r *Registry) SetBase(slug string, index corpus.Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base[slug] = index
}

// EnsureDelta は指定スラッグのデルタインデックスを返し、無ければ新規作成して登録する
func (r *Registry) EnsureDelta(ctx context.Context, slug string) (corpus.Index, error) {
	if index, ok := r.Delta(slug); ok {
		return index, nil
	}

	index, err := r.deltaStore.Load(ctx, slug)
	if err != nil {
		if !errors.Is(err, corpus.ErrIndexNotFound) {
			return nil, fmt.Errorf("failed to load delta index: %w", err)
		}
		index, err = r.deltaStore.Create(ctx, slug)
		if err != nil {
			return nil, fmt.Errorf("failed to create delta index: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Load中に他のゴルーチンが先に登録していればそちらを使う
	if existing, ok := r.delta[slug]; ok {
		return existing, nil
	}
	r.delta[slug] = index
	return index, nil
}

// LockSlug はスラッグ単位の書き込みロックを取得し、解放関数を返す
func (r *Registry) LockSlug(slug string) func() {
	r.lockMu.Lock()
	lock, ok := r.slugLocks[slug]
	if !ok {
		lock = &sync.Mutex{}
		r.slugLocks[slug] = lock
	}
	r.lockMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Counts は読み込み済みのベース/デルタインデックス数を返す
func (r *Registry) Counts() (baseCount, deltaCount int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.base), len(r.delta)
}
