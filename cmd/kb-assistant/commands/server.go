package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kb-assistant/internal/interface/api"
)

// ServerStartAction はHTTP APIサーバを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	handler := api.NewHandler(
		appCtx.Container.AnswerService,
		appCtx.Container.InjectionService,
		appCtx.Container.Registry,
		appCtx.Logger(),
	)
	server := api.NewServer(appCtx.Config.HTTPPort, handler, appCtx.Logger())

	return server.Run(ctx)
}
