package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/kb-assistant/internal/module/answer/domain"
	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
	thread "github.com/jinford/kb-assistant/internal/module/thread/domain"
)

// IndexProvider はスラッグからロード済みインデックスを引くためのインターフェース
type IndexProvider interface {
	Base(slug string) (corpus.Index, bool)
	Delta(slug string) (corpus.Index, bool)
}

// TokenCounter はプロンプトのトークン数を数えるインターフェース
type TokenCounter interface {
	CountTokens(text string) int
}

// Config はAnswerServiceの動作パラメータ
type Config struct {
	Gate              domain.GateParams
	TopK              int
	Temperature       float64
	ContextTokenLimit int
}

// AnswerService は質問応答と整形（elaborate）のユースケースを提供する
type AnswerService struct {
	indexes   IndexProvider
	generator llm.Generator
	threads   thread.Store
	tokens    TokenCounter
	cfg       Config
	logger    *slog.Logger
}

// NewAnswerService は新しいAnswerServiceを作成する
func NewAnswerService(
	indexes IndexProvider,
	generator llm.Generator,
	threads thread.Store,
	tokens TokenCounter,
	cfg Config,
	logger *slog.Logger,
) *AnswerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerService{
		indexes:   indexes,
		generator: generator,
		threads:   threads,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger,
	}
}

// AnswerParams は質問応答のパラメータ
type AnswerParams struct {
	Project    string
	Version    string
	ThreadSlug string
	Message    string
}

// Answer はベース+デルタインデックスに対するRAGで質問に回答する。
// エビデンス不足の場合は生成を呼ばずに固定の棄却応答を返す（棄却は成功であり、
// プロバイダ障害のエラーとは厳密に区別される）。
func (s *AnswerService) Answer(ctx context.Context, params AnswerParams) (string, error) {
	if err := corpus.ValidateTarget(params.Project, params.Version); err != nil {
		return "", err
	}

	slug := corpus.ResolveSlug(params.Project, params.Version)

	base, ok := s.indexes.Base(slug)
	if !ok {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrCorpusNotFound, params.Project, params.Version)
	}

	var delta corpus.Index
	if d, ok := s.indexes.Delta(slug); ok {
		delta = d
	}

	merged, err := domain.Merge(ctx, base, delta, params.Message, s.cfg.TopK)
	if err != nil {
		return "", err
	}

	accepted, shouldAnswer := domain.Gate(merged, s.cfg.Gate)
	s.logger.Info("confidence gate evaluated",
		"slug", slug,
		"retrieved", len(merged),
		"accepted", len(accepted),
		"shouldAnswer", shouldAnswer,
	)

	var response string
	if !shouldAnswer {
		// 棄却は成功結果として扱う
		s.logger.Info("abstaining due to insufficient evidence", "slug", slug)
		response = domain.AbstentionResponse
	} else {
		contextBlock := s.buildContext(accepted)
		prompt := domain.BuildAnswerPrompt(params.Message, contextBlock)

		response, err = s.generator.Generate(ctx, llm.GenerateParams{
			Prompt:      prompt,
			Temperature: s.cfg.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("failed to generate answer: %w", err)
		}
	}

	if err := s.threads.AppendExchange(ctx, params.ThreadSlug, params.Message, response); err != nil {
		return "", fmt.Errorf("failed to update thread history: %w", err)
	}

	return response, nil
}

// buildContext は受理候補からコンテキストブロックを構築する。
// トークン上限を超える場合は末尾の候補からプロンプトへの採用を打ち切る
// （受理集合そのものとゲート判定は変更しない）。
func (s *AnswerService) buildContext(accepted []corpus.Candidate) string {
	if s.tokens == nil || s.cfg.ContextTokenLimit <= 0 {
		return domain.JoinContext(accepted)
	}

	included := accepted
	for len(included) > 1 {
		contextBlock := domain.JoinContext(included)
		tokenCount := s.tokens.CountTokens(contextBlock)
		if tokenCount <= s.cfg.ContextTokenLimit {
			break
		}
		s.logger.Warn("context exceeds token limit, dropping trailing candidate",
			"tokens", tokenCount,
			"limit", s.cfg.ContextTokenLimit,
			"candidates", len(included),
		)
		included = included[:len(included)-1]
	}

	contextBlock := domain.JoinContext(included)
	s.logger.Info("context assembled",
		"candidates", len(included),
		"tokens", s.tokens.CountTokens(contextBlock),
	)
	return contextBlock
}

// ElaborateParams は整形モードのパラメータ
type ElaborateParams struct {
	ThreadSlug string
	Message    string
}

// Elaborate は検索を行わない純粋なチャットでメッセージを整形する。
// 確信度ゲートもマージも経由しない。
func (s *AnswerService) Elaborate(ctx context.Context, params ElaborateParams) (string, error) {
	history, err := s.threads.Load(ctx, params.ThreadSlug)
	if err != nil {
		return "", fmt.Errorf("failed to load thread history: %w", err)
	}

	prompt := domain.BuildElaboratePrompt(history, params.Message)

	response, err := s.generator.Generate(ctx, llm.GenerateParams{
		Prompt:      prompt,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate reformatted text: %w", err)
	}

	if err := s.threads.AppendExchange(ctx, params.ThreadSlug, params.Message, response); err != nil {
		return "", fmt.Errorf("failed to update thread history: %w", err)
	}

	return response, nil
}
