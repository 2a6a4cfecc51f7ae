package fswalk

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/jinford/kb-assistant/internal/module/indexing/domain"
)

// maxFileSize はインデックス対象とするファイルサイズの上限（2MB）
const maxFileSize = 2 * 1024 * 1024

// DirectorySource はローカルディレクトリを走査するdomain.Sourceの実装。
// .gitignore と .kbignore のパターン、および既定の除外パターンを適用する。
type DirectorySource struct {
	root string
}

// NewDirectorySource は新しいDirectorySourceを作成する
func NewDirectorySource(root string) *DirectorySource {
	return &DirectorySource{root: root}
}

// Name はdomain.Sourceの実装
func (s *DirectorySource) Name() string {
	return s.root
}

// Files はdomain.Sourceの実装
func (s *DirectorySource) Files(ctx context.Context) ([]domain.SourceFile, error) {
	matcher, err := s.buildIgnoreMatcher()
	if err != nil {
		return nil, err
	}

	var files []domain.SourceFile
	err = filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return fmt.Errorf("failed to resolve relative path: %w", err)
		}
		if rel == "." {
			return nil
		}

		if entry.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}

		if matcher.MatchesPath(rel) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", rel, err)
		}
		if info.Size() > maxFileSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}

		contentType, ok := detectTextContent(rel, content)
		if !ok {
			return nil
		}

		files = append(files, domain.SourceFile{
			Path:        filepath.ToSlash(rel),
			Content:     content,
			ContentType: contentType,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}

	return files, nil
}

// buildIgnoreMatcher は.gitignore/.kbignoreと既定パターンからマッチャを作る
func (s *DirectorySource) buildIgnoreMatcher() (*gitignore.GitIgnore, error) {
	patterns := defaultIgnorePatterns()

	for _, name := range []string{".gitignore", ".kbignore"} {
		path := filepath.Join(s.root, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, line)
		}
	}

	return gitignore.CompileIgnoreLines(patterns...), nil
}

// defaultIgnorePatterns はignoreファイルが無くても常に除外するパターン
func defaultIgnorePatterns() []string {
	return []string{
		".git/",
		".svn/",
		"node_modules/",
		"vendor/",
		"dist/",
		"build/",
		"*.lock",
		"*.min.js",
		"*.min.css",
	}
}
