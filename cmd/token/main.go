package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/MrJamesThe3rd/labtrack/internal/config"
	"github.com/MrJamesThe3rd/labtrack/internal/identity"
)

// token issues bearer tokens for operators and stations.
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "token",
		Usage: "issue an access token for an actor",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "actor id", Required: true},
			&cli.StringFlag{Name: "name", Usage: "display name"},
			&cli.StringFlag{Name: "sector", Usage: "sector the actor is bound to; empty for tracking only"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 12 * time.Hour},
		},
		Action: issue,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
}

func issue(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	actor := identity.Actor{
		ID:     c.String("id"),
		Name:   c.String("name"),
		Sector: c.String("sector"),
	}
	if actor.Name == "" {
		actor.Name = actor.ID
	}

	raw, err := identity.NewVerifier(cfg.Auth.JWTSecret, cfg.App.Name).Issue(actor, c.Duration("ttl"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, raw)

	return nil
}
