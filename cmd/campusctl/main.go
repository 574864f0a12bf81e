package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yigit/campusmesh/internal/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "campusctl",
		Usage: "operator tooling for the CampusMesh API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				Value:   "configs/config.yaml",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			seedCommand(),
			accountCommand(),
			tokenCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("campusctl failed")
		os.Exit(1)
	}
}
