package main

import (
	"fmt"
	"os"

	"threadbox/cmd"

	"github.com/urfave/cli/v2"
)

const version = "0.1.0"

// @title threadbox API
// @version 1.0
// @description Multi-participant threads with per-participant read markers.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:    "threadbox",
		Usage:   "Thread messaging backend",
		Version: version,
		Commands: []*cli.Command{
			cmd.ServeCommand(),
			cmd.MigrateCommand(),
			cmd.SeedCommand(),
			cmd.TokenCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
