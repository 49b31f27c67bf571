package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/safehands/guide/pkg/catalog"
	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a workflow catalog file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "catalog-path",
				Usage:    "Path to the YAML workflow catalog",
				Required: true,
				Sources:  cli.EnvVars("CATALOG_PATH"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := slog.With(
				"module", "safehands-api",
				"action", "validate",
			)

			path := command.String("catalog-path")

			cat, err := catalog.LoadFile(path)
			if err != nil {
				return fmt.Errorf("invalid catalog %s: %w", path, err)
			}

			for _, workflowType := range cat.Types() {
				steps, err := cat.Steps(workflowType)
				if err != nil {
					return err
				}

				logger.InfoContext(ctx, "Workflow is valid", "workflow_type", workflowType, "steps", len(steps))
			}

			return nil
		},
	}
}
