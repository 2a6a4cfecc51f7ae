package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("hello world", 100)

	assert.Equal(t, []string{"hello world"}, chunks)
}

func TestSplitText_EmptyText(t *testing.T) {
	assert.Empty(t, SplitText("", 100))
	assert.Empty(t, SplitText("\n\n\n\n", 100))
}

func TestSplitText_ParagraphBoundary(t *testing.T) {
	a := strings.Repeat("a", 60)
	b := strings.Repeat("b", 60)
	text := a + "\n\n" + b

	chunks := SplitText(text, 100)

	assert.Equal(t, []string{a, b}, chunks)
}

func TestSplitText_ParagraphsPackedUpToLimit(t *testing.T) {
	a := strings.Repeat("a", 30)
	b := strings.Repeat("b", 30)
	text := a + "\n\n" + b

	chunks := SplitText(text, 100)

	assert.Equal(t, []string{a + "\n\n" + b}, chunks)
}

func TestSplitText_OverlongParagraphHardSplit(t *testing.T) {
	long := strings.Repeat("x", 250)

	chunks := SplitText(long, 100)

	assert.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 100), chunks[0])
	assert.Equal(t, strings.Repeat("x", 100), chunks[1])
	assert.Equal(t, strings.Repeat("x", 50), chunks[2])
}

func TestSplitText_PreservesOrderAndContent(t *testing.T) {
	paragraphs := []string{"first", "second", "third", "fourth"}
	text := strings.Join(paragraphs, "\n\n")

	chunks := SplitText(text, 15)

	joined := strings.Join(chunks, "\n\n")
	assert.Equal(t, text, joined)
}

func TestSplitText_MultibyteRunes(t *testing.T) {
	// マルチバイト文字はバイト数ではなく文字数で数える
	long := strings.Repeat("あ", 150)

	chunks := SplitText(long, 100)

	assert.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("あ", 100), chunks[0])
	assert.Equal(t, strings.Repeat("あ", 50), chunks[1])
}

func TestSplitText_ZeroMaxUsesDefault(t *testing.T) {
	chunks := SplitText("short text", 0)

	assert.Equal(t, []string{"short text"}, chunks)
}
