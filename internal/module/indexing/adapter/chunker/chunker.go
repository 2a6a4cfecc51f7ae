package chunker

import "strings"

// DefaultMaxRunes は1チャンクあたりの最大文字数の既定値
const DefaultMaxRunes = 2000

// SplitText はテキストを段落境界を優先して最大maxRunes文字のチャンクに分割する。
// 段落単体が上限を超える場合のみ文字数で強制分割する。
// 空白のみのチャンクは生成しない。
func SplitText(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		currentRunes = 0
	}

	for _, paragraph := range paragraphs {
		runes := len([]rune(paragraph))

		if runes > maxRunes {
			// 巨大な段落は文字数で強制分割する
			flush()
			for _, piece := range splitByRunes(paragraph, maxRunes) {
				piece = strings.TrimSpace(piece)
				if piece != "" {
					chunks = append(chunks, piece)
				}
			}
			continue
		}

		// 区切りの "\n\n" を含めた長さで上限を判定する
		if currentRunes > 0 && currentRunes+2+runes > maxRunes {
			flush()
		}

		if currentRunes > 0 {
			current.WriteString("\n\n")
			currentRunes += 2
		}
		current.WriteString(paragraph)
		currentRunes += runes
	}
	flush()

	return chunks
}

// splitByRunes は文字数単位の強制分割を行う
func splitByRunes(text string, maxRunes int) []string {
	runes := []rune(text)

	var pieces []string
	for start := 0; start < len(runes); start += maxRunes {
		end := start + maxRunes
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
