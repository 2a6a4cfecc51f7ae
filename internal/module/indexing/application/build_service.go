package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	"github.com/jinford/kb-assistant/internal/module/indexing/adapter/chunker"
	"github.com/jinford/kb-assistant/internal/module/indexing/domain"
)

// BuildResult はベースインデックス構築の結果
type BuildResult struct {
	Slug       string
	FileCount  int
	ChunkCount int
}

// BuildService はソースからベースインデックスを構築するサービス
type BuildService struct {
	store    corpus.IndexStore
	maxRunes int
	logger   *slog.Logger
}

// NewBuildService はBuildServiceを生成する
func NewBuildService(store corpus.IndexStore, opts ...BuildServiceOption) *BuildService {
	s := &BuildService{
		store:    store,
		maxRunes: chunker.DefaultMaxRunes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildServiceOption はBuildServiceの設定オプション
type BuildServiceOption func(*BuildService)

// WithChunkSize はチャンクの最大文字数を設定する
func WithChunkSize(maxRunes int) BuildServiceOption {
	return func(s *BuildService) {
		if maxRunes > 0 {
			s.maxRunes = maxRunes
		}
	}
}

// WithBuildLogger はロガーを設定する
func WithBuildLogger(l *slog.Logger) BuildServiceOption {
	return func(s *BuildService) {
		if l != nil {
			s.logger = l
		}
	}
}

// Build はソースの全ファイルをチャンク分割してベースインデックスを構築・永続化する。
// 既存の同名インデックスは上書きされる。
func (s *BuildService) Build(ctx context.Context, project, version string, source domain.Source) (*BuildResult, error) {
	if err := corpus.ValidateTarget(project, version); err != nil {
		return nil, err
	}
	slug := corpus.ResolveSlug(project, version)

	files, err := source.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect source files: %w", err)
	}

	index, err := s.store.Create(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to create index for %s: %w", slug, err)
	}

	result := &BuildResult{Slug: slug}
	for _, file := range files {
		pieces := chunker.SplitText(string(file.Content), s.maxRunes)
		for i, piece := range pieces {
			chunk := corpus.Chunk{
				ID:   uuid.New().String(),
				Text: piece,
				Metadata: corpus.Metadata{
					"path":         corpus.StringValue(file.Path),
					"content_type": corpus.StringValue(file.ContentType),
					"chunk_index":  corpus.NumberValue(float64(i)),
				},
			}
			if err := index.Insert(ctx, chunk); err != nil {
				return nil, fmt.Errorf("failed to insert chunk from %s: %w", file.Path, err)
			}
			result.ChunkCount++
		}
		result.FileCount++
	}

	if err := index.Persist(ctx); err != nil {
		return nil, fmt.Errorf("failed to persist index %s: %w", slug, err)
	}

	s.logger.Info("base index built",
		slog.String("slug", slug),
		slog.String("source", source.Name()),
		slog.Int("files", result.FileCount),
		slog.Int("chunks", result.ChunkCount),
	)

	return result, nil
}
