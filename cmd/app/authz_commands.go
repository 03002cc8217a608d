package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/wardenauth/warden/cmd/app/commands"
	"github.com/wardenauth/warden/internal/app"
	"github.com/wardenauth/warden/internal/config"
)

func getAuthzCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-role",
			Usage: "Create a new role with a permission list",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Unique role name",
				},
				&cli.StringFlag{
					Name:     "permissions",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Comma-separated 'resource:action' permission strings",
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

				roleUseCase, err := container.RoleUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateRole(
					ctx,
					roleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("permissions"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "assign-role",
			Usage: "Grant a role to a principal, optionally time-bounded",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "principal-id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Principal ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Role name",
				},
				&cli.StringFlag{
					Name:    "valid-from",
					Aliases: []string{"s"},
					Usage:   "Grant start in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:    "valid-until",
					Aliases: []string{"e"},
					Usage:   "Grant end in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
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

				roleUseCase, err := container.RoleUseCase()
				if err != nil {
					return err
				}

				return commands.RunAssignRole(
					ctx,
					roleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("principal-id"),
					cmd.String("role"),
					cmd.String("valid-from"),
					cmd.String("valid-until"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "create-policy",
			Usage: "Create a new ABAC policy, optionally with a first version",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Unique policy key",
				},
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable policy name",
				},
				&cli.StringFlag{
					Name:    "effect",
					Aliases: []string{"e"},
					Usage:   "Effect of the first version: 'ALLOW' or 'DENY' (omit to create the container only)",
				},
				&cli.StringFlag{
					Name:    "condition",
					Aliases: []string{"c"},
					Usage:   "Condition of the first version as a JSON document",
				},
				&cli.StringFlag{
					Name:    "created-by",
					Aliases: []string{"b"},
					Value:   "cli",
					Usage:   "Author recorded on the first version",
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

				policyUseCase, err := container.PolicyUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreatePolicy(
					ctx,
					policyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key"),
					cmd.String("name"),
					cmd.String("effect"),
					cmd.String("condition"),
					cmd.String("created-by"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "activate-policy-version",
			Usage: "Activate a policy version, deactivating the rest",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Policy key",
				},
				&cli.IntFlag{
					Name:     "version",
					Aliases:  []string{"v"},
					Required: true,
					Usage:    "Version number to activate",
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

				policyUseCase, err := container.PolicyUseCase()
				if err != nil {
					return err
				}

				return commands.RunActivatePolicyVersion(
					ctx,
					policyUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key"),
					int(cmd.Int("version")),
					cmd.String("format"),
				)
			},
		},
	}
}
