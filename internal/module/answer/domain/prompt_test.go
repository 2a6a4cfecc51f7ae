package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	thread "github.com/jinford/kb-assistant/internal/module/thread/domain"
)

func TestJoinContext_DoubleNewlineInOrder(t *testing.T) {
	accepted := []corpus.Candidate{
		{Chunk: corpus.Chunk{Text: "A"}},
		{Chunk: corpus.Chunk{Text: "B"}},
	}

	assert.Equal(t, "A\n\nB", JoinContext(accepted))
}

func TestJoinContext_Empty(t *testing.T) {
	assert.Equal(t, "", JoinContext(nil))
}

func TestBuildAnswerPrompt_EmbedsContextAndQuestion(t *testing.T) {
	prompt := BuildAnswerPrompt("how do I configure X?", "A\n\nB")

	assert.Contains(t, prompt, "Context:\nA\n\nB\n")
	assert.Contains(t, prompt, "Question: how do I configure X?")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
	// 棄却指示がテンプレートに含まれること
	assert.Contains(t, prompt, `respond with: "I don't know."`)
}

func TestBuildElaboratePrompt_WithHistory(t *testing.T) {
	history := []thread.Message{
		{Role: thread.RoleUser, Content: "first question"},
		{Role: thread.RoleAssistant, Content: "first answer"},
	}

	prompt := BuildElaboratePrompt(history, "raw notes")

	assert.Contains(t, prompt, "Previous conversation:\nuser: first question\nassistant: first answer\n")
	assert.Contains(t, prompt, "raw notes")
	assert.True(t, strings.HasSuffix(prompt, "Reformatted version:"))
}

func TestBuildElaboratePrompt_WithoutHistory(t *testing.T) {
	prompt := BuildElaboratePrompt(nil, "raw notes")

	assert.NotContains(t, prompt, "Previous conversation")
	assert.Contains(t, prompt, "raw notes")
}
