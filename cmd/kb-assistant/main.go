package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kb-assistant/cmd/kb-assistant/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "kb-assistant",
		Usage: "ナレッジベース向け質問応答アシスタント（ベース+デルタコーパスRAG）",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "サーバ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "start",
						Usage:  "HTTP APIサーバを起動",
						Flags:  []cli.Flag{envFlag},
						Action: commands.ServerStartAction,
					},
				},
			},
			{
				Name:  "corpus",
				Usage: "ベースコーパス管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "build",
						Usage: "ディレクトリまたはGitリポジトリからベースインデックスを構築",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:  "data",
								Usage: "入力データディレクトリ",
							},
							&cli.StringFlag{
								Name:  "git-url",
								Usage: "クローンするGitリポジトリURL",
							},
							&cli.StringFlag{
								Name:  "ref",
								Usage: "チェックアウトするブランチ名（--git-url指定時）",
							},
							&cli.StringFlag{
								Name:  "project",
								Usage: "プロジェクト名（--git-url指定時はURLから導出可能）",
							},
							&cli.StringFlag{
								Name:  "version",
								Usage: "プロジェクトバージョン",
							},
						},
						Action: commands.CorpusBuildAction,
					},
				},
			},
			{
				Name:  "inject",
				Usage: "デルタコーパスへコンテンツを投入",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "project",
						Usage:    "プロジェクト名",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "プロジェクトバージョン",
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "投入するテキスト（省略時は標準入力）",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "メタデータに記録する出典",
					},
				},
				Action: commands.InjectAction,
			},
			{
				Name:  "ask",
				Usage: "コーパスに質問する",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "project",
						Usage:    "プロジェクト名",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "version",
						Usage: "プロジェクトバージョン",
					},
					&cli.StringFlag{
						Name:     "message",
						Usage:    "質問文",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "thread",
						Usage: "会話履歴のスレッドスラッグ",
					},
				},
				Action: commands.AskAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatalf("エラー: %v", err)
	}
}
