/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/ennu/cmd"
	"github.com/humaidq/ennu/logging"
)

func main() {
	app := &cli.Command{
		Name:  "ennu",
		Usage: "ENNU - Biomarker targets, profile completeness and test recommendations",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdImportCSV,
			cmd.CmdUser,
			cmd.CmdRules,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.Logger(logging.SourceApp).Fatal("Command failed", "error", err)
	}
}
