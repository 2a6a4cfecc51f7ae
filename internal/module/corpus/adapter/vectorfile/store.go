package vectorfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	llm "github.com/jinford/kb-assistant/internal/module/llm/domain"
)

// Store はcorpus.IndexStoreのファイルベース実装。
// <root>/<スラッグ>/index.json にインデックスを1つずつ永続化する。
type Store struct {
	root     string
	embedder llm.Embedder
}

// NewStore は新しいStoreを作成する
func NewStore(root string, embedder llm.Embedder) *Store {
	return &Store{
		root:     root,
		embedder: embedder,
	}
}

// Load はcorpus.IndexStoreの実装
func (s *Store) Load(_ context.Context, slug string) (corpus.Index, error) {
	dir := filepath.Join(s.root, slug)
	path := filepath.Join(dir, indexFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", corpus.ErrIndexNotFound, slug)
		}
		return nil, fmt.Errorf("failed to read index file: %w", err)
	}

	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode index %s: %w", slug, err)
	}

	return &Index{
		dir:      dir,
		embedder: s.embedder,
		entries:  entries,
	}, nil
}

// Create はcorpus.IndexStoreの実装
func (s *Store) Create(_ context.Context, slug string) (corpus.Index, error) {
	dir := filepath.Join(s.root, slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	return &Index{
		dir:      dir,
		embedder: s.embedder,
	}, nil
}

// List はcorpus.IndexStoreの実装。
// index.jsonを持つサブディレクトリ名をスラッグ一覧として返す。
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	var slugs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.root, e.Name(), indexFileName)); err == nil {
			slugs = append(slugs, e.Name())
		}
	}
	return slugs, nil
}

// インターフェース実装の確認
var _ corpus.IndexStore = (*Store)(nil)
