package cmd

import (
	"fmt"

	"threadbox/internal/app/user"
	"threadbox/internal/auth"

	"github.com/urfave/cli/v2"
)

// TokenCommand mints a bearer token for an existing user, for local development.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Print a bearer token for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Email of the user to sign in as",
				Required: true,
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

			u, err := user.NewRepository(conn).GetByEmail(c.Context, c.String("email"))
			if err != nil {
				return fmt.Errorf("lookup %q: %w", c.String("email"), err)
			}

			token, err := auth.NewIssuer(rt.cfg.JWTSecret, rt.cfg.TokenTTL).Issue(u.Principal())
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
