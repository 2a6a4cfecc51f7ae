package application

import (
	"context"
	"fmt"
	"log/slog"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/injection/domain"
)

// DeltaRegistry はインジェクション先のデルタインデックスを提供するインターフェース
type DeltaRegistry interface {
	// LockSlug はスラッグ単位の書き込みロックを取得し、解放関数を返す
	LockSlug(slug string) func()

	// EnsureDelta はデルタインデックスを返し、無ければ作成する
	EnsureDelta(ctx context.Context, slug string) (corpus.Index, error)
}

// Service はコンテンツ投入のユースケースを提供する
type Service struct {
	registry DeltaRegistry
	recorder domain.Recorder
	logger   *slog.Logger
}

// NewService は新しいServiceを作成する
func NewService(registry DeltaRegistry, recorder domain.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		recorder: recorder,
		logger:   logger,
	}
}

// InjectParams はコンテンツ投入のパラメータ
type InjectParams struct {
	Project  string
	Version  string
	Text     string
	Metadata corpus.Metadata
}

// Inject は投入内容をログへ追記してからデルタインデックスへ反映する。
// 順序は必ず「ログ追記 → インデックス挿入 → 永続化」であり、
// ログ書き込みに失敗した場合はインデックスへ一切触れない。
func (s *Service) Inject(ctx context.Context, params InjectParams) (string, error) {
	if err := corpus.ValidateTarget(params.Project, params.Version); err != nil {
		return "", err
	}

	slug := corpus.ResolveSlug(params.Project, params.Version)
	target := domain.Target{Project: params.Project, Version: params.Version}

	metadata := params.Metadata
	if metadata == nil {
		metadata = corpus.Metadata{}
	}

	// 同一スラッグへの書き込みを直列化する
	unlock := s.registry.LockSlug(slug)
	defer unlock()

	recordID, err := s.recorder.Record(ctx, target, params.Text, metadata)
	if err != nil {
		return "", err
	}

	index, err := s.registry.EnsureDelta(ctx, slug)
	if err != nil {
		return "", err
	}

	chunk := corpus.Chunk{
		ID:       recordID,
		Text:     params.Text,
		Metadata: metadata,
	}
	if err := index.Insert(ctx, chunk); err != nil {
		return "", fmt.Errorf("failed to insert chunk into delta index: %w", err)
	}

	if err := index.Persist(ctx); err != nil {
		return "", fmt.Errorf("%w: failed to persist delta index: %v", domain.ErrStorageWrite, err)
	}

	s.logger.Info("content injected",
		"slug", slug,
		"recordID", recordID,
		"textLength", len(params.Text),
	)
	return recordID, nil
}
