package domain

import (
	"fmt"
	"strings"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	thread "github.com/jinford/kb-assistant/internal/module/thread/domain"
)

// AbstentionResponse はエビデンス不足時に返す固定の棄却応答。
// バイト単位で一致することをテストで保証するため、ここ以外で定義しない。
const AbstentionResponse = "I don't know."

// answerPromptTemplate は回答生成用のプロンプトテンプレート。
// コンテキストを第一の情報源としつつ、例示の補完には一般知識の利用を許可する。
const answerPromptTemplate = `You are a helpful technical assistant with expertise in Kubernetes and cloud-native technologies.

Use the provided context as your PRIMARY source of information. When the user asks for examples or configurations:
1. Start with what's provided in the context
2. Use your knowledge to complete and enhance the example to make it fully functional
3. Ensure all parts of your example are consistent (matching labels, IPs, names, etc.)
4. Provide complete, working configurations that the user can directly use

If the context doesn't contain relevant information to answer the question at all, respond with: "I don't know."

Context:
%s

Question: %s

Answer:`

// JoinContext は受理された候補の本文をマージ順のまま空行区切りで連結する
func JoinContext(accepted []corpus.Candidate) string {
	texts := make([]string, 0, len(accepted))
	for _, candidate := range accepted {
		texts = append(texts, candidate.Chunk.Text)
	}
	return strings.Join(texts, "\n\n")
}

// BuildAnswerPrompt は回答生成用プロンプトを構築する
func BuildAnswerPrompt(question, context string) string {
	return fmt.Sprintf(answerPromptTemplate, context, question)
}

// BuildElaboratePrompt は整形モード用プロンプトを構築する。
// 検索は行わず、過去スレッドを "role: content" 形式で前置する。
func BuildElaboratePrompt(history []thread.Message, message string) string {
	var sb strings.Builder

	if len(history) > 0 {
		sb.WriteString("Previous conversation:\n")
		for _, msg := range history {
			sb.WriteString(msg.Role)
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Please take the following content and reformat it in a clear, readable, and well-organized way. ")
	sb.WriteString("Summarize key points, improve structure, and make it easier to understand:\n\n")
	sb.WriteString(message)
	sb.WriteString("\n\nReformatted version:")

	return sb.String()
}
