package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/kb-assistant/internal/module/llm/domain"
)

const (
	// DefaultModel はデフォルトで使用するOpenAIモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second
)

// OpenAIGenerator はOpenAI APIを使用したテキスト生成クライアント
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator はAPIキーとモデルを指定してOpenAIGeneratorを作成する
func NewOpenAIGenerator(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, domain.ErrAPIKeyNotSet
	}

	if model == "" {
		model = DefaultModel
	}

	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定する
func (g *OpenAIGenerator) SetTimeout(timeout time.Duration) {
	g.timeout = timeout
}

// ModelName はモデル名を返す
func (g *OpenAIGenerator) ModelName() string {
	return g.model
}

// Generate はdomain.Generatorの実装。
// タイムアウト切れを含むAPI側の失敗はすべてErrProviderでラップして返す。
func (g *OpenAIGenerator) Generate(ctx context.Context, params domain.GenerateParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(params.Prompt),
		},
		Temperature: openai.Float(params.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion failed: %v", domain.ErrProvider, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrProvider)
	}

	return completion.Choices[0].Message.Content, nil
}

// インターフェース実装の確認
var _ domain.Generator = (*OpenAIGenerator)(nil)
