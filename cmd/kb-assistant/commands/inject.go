package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	corpus "github.com/jinford/kb-assistant/internal/module/corpus/domain"
	injectionapp "github.com/jinford/kb-assistant/internal/module/injection/application"
)

// InjectAction はデルタコーパスへコンテンツを投入するコマンドのアクション。
// --text が空の場合は標準入力から読み込む。
func InjectAction(ctx context.Context, cmd *cli.Command) error {
	text := cmd.String("text")
	if text == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("標準入力の読み込みに失敗: %w", err)
		}
		text = string(raw)
	}
	if text == "" {
		return fmt.Errorf("投入するテキストが空です")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	metadata := corpus.Metadata{}
	if source := cmd.String("source"); source != "" {
		metadata["source"] = corpus.StringValue(source)
	}

	id, err := appCtx.Container.InjectionService.Inject(ctx, injectionapp.InjectParams{
		Project:  cmd.String("project"),
		Version:  cmd.String("version"),
		Text:     text,
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("コンテンツ投入に失敗: %w", err)
	}

	fmt.Printf("投入しました: %s\n", id)
	return nil
}
