package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持します。
// 起動時に一度だけ構築し、各コンポーネントへ明示的に引き渡します。
type Config struct {
	// Retrieval は検索と確信度ゲートの設定
	Retrieval RetrievalConfig

	// Storage は各種永続化先のルートパス設定
	Storage StorageConfig

	// OpenAI はEmbeddings/生成モデルのAPI設定
	OpenAI OpenAIConfig

	// Database はPostgreSQLバックエンド利用時の接続設定
	Database DatabaseConfig

	// IndexBackend はコーパスインデックスの保存先 ("file" or "postgres")
	IndexBackend string

	// HTTPPort はAPIサーバの待ち受けポート
	HTTPPort int

	// LogLevel はログレベル ("debug" / "info" / "warn" / "error")
	LogLevel string
}

// RetrievalConfig は検索・棄却判定まわりの設定
type RetrievalConfig struct {
	// MinHits はカットオフ通過後に必要な最小候補数
	MinHits int

	// SimilarityCutoff は候補単位の類似度スコア下限
	SimilarityCutoff float64

	// ConfidenceThreshold はスコア平均の下限
	ConfidenceThreshold float64

	// TopK は各インデックスへ問い合わせる候補数
	TopK int

	// Temperature は生成時の温度パラメータ
	Temperature float64

	// ContextTokenLimit はプロンプトに含めるコンテキストのトークン上限
	ContextTokenLimit int
}

// StorageConfig は永続化パス設定
type StorageConfig struct {
	// DataRoot はベースコーパス構築時の入力データ置き場
	DataRoot string

	// StorageRoot はベースインデックスの永続化先
	StorageRoot string

	// DeltaRoot はデルタインデックスの永続化先
	DeltaRoot string

	// StateRoot はスレッド履歴などの状態保存先
	StateRoot string

	// InjectRoot はインジェクションログ(JSONL)の保存先
	InjectRoot string
}

// OpenAIConfig はOpenAI API設定（Embeddings + 生成）
type OpenAIConfig struct {
	APIKey             string
	EmbeddingModel     string
	EmbeddingDimension int
	LLMModel           string
}

// DatabaseConfig はデータベース接続設定
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	cfg := &Config{
		Retrieval: RetrievalConfig{
			MinHits:             getEnvAsInt("MIN_HITS", 1),
			SimilarityCutoff:    getEnvAsFloat("SIMILARITY_CUTOFF", 0.5),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.1),
			TopK:                getEnvAsInt("TOP_K", 5),
			Temperature:         getEnvAsFloat("TEMPERATURE", 0.0),
			ContextTokenLimit:   getEnvAsInt("PROMPT_CONTEXT_TOKEN_LIMIT", 6000),
		},
		Storage: StorageConfig{
			DataRoot:    getEnv("DATA_ROOT", "/var/lib/kb-assistant/data"),
			StorageRoot: getEnv("STORAGE_ROOT", "/var/lib/kb-assistant/storage"),
			DeltaRoot:   getEnv("DELTA_ROOT", "/var/lib/kb-assistant/storage-delta"),
			StateRoot:   getEnv("STATE_ROOT", "/var/lib/kb-assistant/state"),
			InjectRoot:  getEnv("INJECT_ROOT", "/var/lib/kb-assistant/injected"),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			EmbeddingModel:     getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			EmbeddingDimension: getEnvAsInt("OPENAI_EMBEDDING_DIMENSION", 1536),
			LLMModel:           getEnv("OPENAI_LLM_MODEL", "gpt-4o-mini"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "kbassistant"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "kbassistant"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		IndexBackend: getEnv("INDEX_BACKEND", "file"),
		HTTPPort:     getEnvAsInt("HTTP_PORT", 8080),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat は環境変数を浮動小数点数として取得します
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
