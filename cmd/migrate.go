package cmd

import (
	"threadbox/internal/app/user"
	"threadbox/internal/db"
	"threadbox/internal/db/seeder"

	"github.com/urfave/cli/v2"
)

func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Seed default users after migrating",
			},
		},
		Action: func(c *cli.Context) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			conn, err := rt.connect()
			if err != nil {
				return err
			}
			if err := db.Migrate(conn, rt.logger); err != nil {
				return err
			}
			if !c.Bool("seed") {
				return nil
			}
			users := user.NewService(user.NewRepository(conn), nil, rt.logger)
			return seeder.NewSeeder(users, rt.logger).Seed(c.Context)
		},
	}
}

func SeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert the default administrator and user accounts",
		Action: func(c *cli.Context) error {
			rt, err := setup()
			if err != nil {
				return err
			}
			defer rt.logger.Sync()

			conn, err := rt.connect()
			if err != nil {
				return err
			}
			users := user.NewService(user.NewRepository(conn), nil, rt.logger)
			return seeder.NewSeeder(users, rt.logger).Seed(c.Context)
		},
	}
}
