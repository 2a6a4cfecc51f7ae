package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jinford/kb-assistant/internal/module/thread/domain"
)

// Store はdomain.StoreのJSONファイル実装。
// <stateRoot>/threads/<スレッドスラッグ>.json に履歴を保存し、
// 読み込み済みスレッドはインメモリにキャッシュする。
type Store struct {
	stateRoot string

	mu    sync.RWMutex
	cache map[string][]domain.Message
}

// NewStore は新しいStoreを作成する
func NewStore(stateRoot string) *Store {
	return &Store{
		stateRoot: stateRoot,
		cache:     make(map[string][]domain.Message),
	}
}

// Load はdomain.Storeの実装
func (s *Store) Load(_ context.Context, threadSlug string) ([]domain.Message, error) {
	s.mu.RLock()
	if messages, ok := s.cache[threadSlug]; ok {
		s.mu.RUnlock()
		return append([]domain.Message(nil), messages...), nil
	}
	s.mu.RUnlock()

	data, err := os.ReadFile(s.threadPath(threadSlug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read thread history: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode thread history: %w", err)
	}

	s.mu.Lock()
	s.cache[threadSlug] = messages
	s.mu.Unlock()

	return append([]domain.Message(nil), messages...), nil
}

// AppendExchange はdomain.Storeの実装
func (s *Store) AppendExchange(ctx context.Context, threadSlug, userContent, assistantContent string) error {
	messages, err := s.Load(ctx, threadSlug)
	if err != nil {
		return err
	}

	messages = append(messages,
		domain.Message{Role: domain.RoleUser, Content: userContent},
		domain.Message{Role: domain.RoleAssistant, Content: assistantContent},
	)

	dir := filepath.Join(s.stateRoot, "threads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thread directory: %w", err)
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode thread history: %w", err)
	}

	if err := os.WriteFile(s.threadPath(threadSlug), data, 0o644); err != nil {
		return fmt.Errorf("failed to write thread history: %w", err)
	}

	s.mu.Lock()
	s.cache[threadSlug] = messages
	s.mu.Unlock()

	return nil
}

func (s *Store) threadPath(threadSlug string) string {
	return filepath.Join(s.stateRoot, "threads", threadSlug+".json")
}

// インターフェース実装の確認
var _ domain.Store = (*Store)(nil)
