package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/wardenauth/warden/cmd/app/commands"
	"github.com/wardenauth/warden/internal/app"
	"github.com/wardenauth/warden/internal/config"
)

func getAuthCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "clean-expired-tokens",
			Usage: "Delete expired refresh tokens",
			Flags: []cli.Flag{
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

				tokenUseCase, err := container.TokenUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanExpiredTokens(
					ctx,
					tokenUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-principal",
			Usage: "Create a new principal (user or service)",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "type",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Principal type: 'user' or 'service'",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable principal name",
				},
				&cli.StringFlag{
					Name:    "email",
					Aliases: []string{"e"},
					Usage:   "Email address (required for user principals)",
				},
				&cli.StringFlag{
					Name:    "password",
					Aliases: []string{"p"},
					Usage:   "Password (omit to be prompted interactively)",
				},
				&cli.StringFlag{
					Name:    "external-ref",
					Aliases: []string{"r"},
					Usage:   "Optional reference into an external directory",
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

				principalUseCase, err := container.PrincipalUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreatePrincipal(
					ctx,
					principalUseCase,
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("type"),
					cmd.String("name"),
					cmd.String("email"),
					cmd.String("password"),
					cmd.String("external-ref"),
					cmd.String("format"),
				)
			},
		},
	}
}
