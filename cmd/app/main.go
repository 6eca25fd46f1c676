// Package main provides the entry point for the gateway with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/gitgate/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "gitgate",
		Usage:   "Device-trust gateway for private release distribution",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the gateway HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "purge-cache",
				Usage: "Remove expired entries from the response cache",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunPurgeCache(ctx, os.Stdout)
				},
			},
			{
				Name:  "verify-audit-logs",
				Usage: "Verify the HMAC signatures of an audit log file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Value:   "",
						Usage:   "Audit log file path (defaults to AUDIT_LOG_PATH)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunVerifyAuditLogs(ctx, cmd.String("file"), os.Stdout)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
