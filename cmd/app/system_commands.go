package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/wardenauth/warden/cmd/app/commands"
	"github.com/wardenauth/warden/internal/app"
	"github.com/wardenauth/warden/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "verify-decision-logs",
			Usage: "Verify cryptographic integrity of decision logs",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "principal-id",
					Aliases: []string{"p"},
					Usage:   "Limit the check to one principal (UUID)",
				},
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				decisionLogUseCase, err := container.DecisionLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyDecisionLogs(
					ctx,
					decisionLogUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("principal-id"),
					cmd.String("start-date"),
					cmd.String("end-date"),
					cmd.String("format"),
				)
			},
		},
	}
}
