package fswalk

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// detectTextContent はファイルのMIMEタイプを判定し、
// テキストとして扱えるかどうかを返す。バイナリはインデックス対象外。
func detectTextContent(path string, content []byte) (contentType string, ok bool) {
	if enry.IsBinary(content) {
		return "", false
	}

	// go-enryで言語を判定（ファイル名と内容の両方を使用）
	language := enry.GetLanguage(filepath.Base(path), content)
	if mimeType := languageToMimeType(language); mimeType != "" {
		return mimeType, true
	}

	detected := http.DetectContentType(content)
	if idx := strings.Index(detected, ";"); idx != -1 {
		detected = detected[:idx]
	}
	detected = strings.TrimSpace(detected)

	if !strings.HasPrefix(detected, "text/") {
		return "", false
	}
	return detected, true
}

// languageToMimeType はgo-enryの言語名をMIMEタイプに変換する
func languageToMimeType(language string) string {
	mapping := map[string]string{
		"Markdown":         "text/markdown",
		"Text":             "text/plain",
		"reStructuredText": "text/x-rst",
		"AsciiDoc":         "text/x-asciidoc",
		"YAML":             "text/x-yaml",
		"JSON":             "application/json",
		"TOML":             "text/x-toml",
		"Go":               "text/x-go",
		"Python":           "text/x-python",
		"Shell":            "text/x-shellscript",
		"HTML":             "text/html",
	}
	return mapping[language]
}
