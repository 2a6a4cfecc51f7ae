package gitsource

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	giturls "github.com/whilp/git-urls"

	"github.com/jinford/kb-assistant/internal/module/indexing/adapter/fswalk"
	"github.com/jinford/kb-assistant/internal/module/indexing/domain"
)

// GitSource はGitリポジトリをクローンして走査するdomain.Sourceの実装。
// クローン先は一時ディレクトリで、走査後に削除される。
type GitSource struct {
	url string
	ref string
}

// NewGitSource は新しいGitSourceを作成する
func NewGitSource(url, ref string) *GitSource {
	return &GitSource{
		url: url,
		ref: ref,
	}
}

// Name はdomain.Sourceの実装
func (s *GitSource) Name() string {
	return s.url
}

// Files はdomain.Sourceの実装
func (s *GitSource) Files(ctx context.Context) ([]domain.SourceFile, error) {
	dir, err := os.MkdirTemp("", "kb-assistant-clone-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	defer os.RemoveAll(dir)

	opts := &git.CloneOptions{
		URL:   s.url,
		Depth: 1,
	}
	if s.ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(s.ref)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", s.url, err)
	}

	return fswalk.NewDirectorySource(dir).Files(ctx)
}

// ProjectNameFromURL はGit URLからプロジェクト名の既定値を導出する
func ProjectNameFromURL(gitURL string) (string, error) {
	u, err := giturls.Parse(gitURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse git URL: %w", err)
	}

	name := path.Base(u.Path)
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("could not derive project name from %s", gitURL)
	}
	return name, nil
}
