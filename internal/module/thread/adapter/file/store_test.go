package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/kb-assistant/internal/module/thread/domain"
)

func TestStore_LoadMissingThreadReturnsEmpty(t *testing.T) {
	store := NewStore(t.TempDir())

	messages, err := store.Load(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_AppendExchangePersistsAndCaches(t *testing.T) {
	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.AppendExchange(context.Background(), "thread-1", "question", "answer"))
	require.NoError(t, store.AppendExchange(context.Background(), "thread-1", "follow-up", "reply"))

	messages, err := store.Load(context.Background(), "thread-1")
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "question"}, messages[0])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "answer"}, messages[1])
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "follow-up"}, messages[2])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "reply"}, messages[3])

	// ファイルにも永続化されていること
	_, err = os.Stat(filepath.Join(root, "threads", "thread-1.json"))
	assert.NoError(t, err)
}

func TestStore_LoadFromDiskWithoutCache(t *testing.T) {
	root := t.TempDir()

	first := NewStore(root)
	require.NoError(t, first.AppendExchange(context.Background(), "t", "hello", "world"))

	// 別インスタンス（キャッシュなし）からも読み出せること
	second := NewStore(root)
	messages, err := second.Load(context.Background(), "t")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[0].Content)
}

func TestStore_LoadReturnsCopy(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, store.AppendExchange(context.Background(), "t", "a", "b"))

	messages, err := store.Load(context.Background(), "t")
	require.NoError(t, err)
	messages[0].Content = "mutated"

	reloaded, err := store.Load(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "a", reloaded[0].Content)
}
