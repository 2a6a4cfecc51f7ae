package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kb-assistant/internal/module/indexing/adapter/fswalk"
	"github.com/jinford/kb-assistant/internal/module/indexing/adapter/gitsource"
	"github.com/jinford/kb-assistant/internal/module/indexing/domain"
)

// CorpusBuildAction はベースコーパスのインデックスを構築するコマンドのアクション
func CorpusBuildAction(ctx context.Context, cmd *cli.Command) error {
	dataDir := cmd.String("data")
	gitURL := cmd.String("git-url")
	if dataDir == "" && gitURL == "" {
		return fmt.Errorf("--data または --git-url のいずれかを指定してください")
	}
	if dataDir != "" && gitURL != "" {
		return fmt.Errorf("--data と --git-url は同時に指定できません")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	project := cmd.String("project")
	var source domain.Source
	if gitURL != "" {
		if project == "" {
			name, err := gitsource.ProjectNameFromURL(gitURL)
			if err != nil {
				return fmt.Errorf("プロジェクト名の導出に失敗: %w", err)
			}
			project = name
		}
		source = gitsource.NewGitSource(gitURL, cmd.String("ref"))
	} else {
		if project == "" {
			return fmt.Errorf("--data 指定時は --project が必須です")
		}
		source = fswalk.NewDirectorySource(dataDir)
	}

	result, err := appCtx.Container.BuildService.Build(ctx, project, cmd.String("version"), source)
	if err != nil {
		return fmt.Errorf("インデックス構築に失敗: %w", err)
	}

	fmt.Printf("インデックスを構築しました: %s (files=%d chunks=%d)\n",
		result.Slug, result.FileCount, result.ChunkCount)
	return nil
}
