package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	answerapp "github.com/jinford/kb-assistant/internal/module/answer/application"
)

// AskAction はコーパスに対して一問一答を行うコマンドのアクション
func AskAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	threadSlug := cmd.String("thread")
	if threadSlug == "" {
		threadSlug = "cli"
	}

	response, err := appCtx.Container.AnswerService.Answer(ctx, answerapp.AnswerParams{
		Project:    cmd.String("project"),
		Version:    cmd.String("version"),
		ThreadSlug: threadSlug,
		Message:    cmd.String("message"),
	})
	if err != nil {
		return fmt.Errorf("質問応答に失敗: %w", err)
	}

	fmt.Println(response)
	return nil
}
