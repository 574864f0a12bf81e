package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/yigit/campusmesh/internal/app/migrations"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/app/services"
	"github.com/yigit/campusmesh/internal/bootstrap"
	"github.com/yigit/campusmesh/internal/config"
	"github.com/yigit/campusmesh/internal/seed"
)

type env struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func loadEnv(c *cli.Context) (*env, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: bootstrap.SetupLogger(cfg)}, nil
}

// openStore returns migrated repositories and a release func
func (e *env) openStore(c *cli.Context) (*repositories.Repositories, func(), error) {
	repos, pool, err := bootstrap.SetupStore(c.Context, e.cfg, e.logger)
	if err != nil {
		return nil, nil, err
	}
	return repos, func() {
		if pool != nil {
			pool.Close()
		}
	}, nil
}

func (e *env) requirePostgres(c *cli.Context) (*pgxpool.Pool, error) {
	if e.cfg.Database.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("command needs the postgres driver, configured driver is %q", e.cfg.Database.Driver)
	}
	return bootstrap.OpenPostgres(c.Context, e.cfg, e.logger)
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "manage the database schema",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply pending migrations",
				Action: func(c *cli.Context) error {
					e, err := loadEnv(c)
					if err != nil {
						return err
					}
					pool, err := e.requirePostgres(c)
					if err != nil {
						return err
					}
					defer pool.Close()

					applied, err := bootstrap.RunMigrations(c.Context, pool, e.logger)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "applied %d migration(s)\n", applied)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "list applied migrations",
				Action: func(c *cli.Context) error {
					e, err := loadEnv(c)
					if err != nil {
						return err
					}
					pool, err := e.requirePostgres(c)
					if err != nil {
						return err
					}
					defer pool.Close()

					versions, err := migrations.NewMigrator(pool, e.logger).AppliedVersions(c.Context)
					if err != nil {
						return err
					}
					for _, v := range versions {
						fmt.Fprintln(c.App.Writer, v)
					}
					return nil
				},
			},
		},
	}
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "create the default admin profile",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "admin email, defaults to accounts.admin_email"},
			&cli.StringFlag{Name: "uid", Usage: "admin user id, defaults to accounts.admin_uid"},
		},
		Action: func(c *cli.Context) error {
			e, err := loadEnv(c)
			if err != nil {
				return err
			}
			repos, release, err := e.openStore(c)
			if err != nil {
				return err
			}
			defer release()

			email, uid := e.cfg.Accounts.AdminEmail, e.cfg.Accounts.AdminUID
			if c.IsSet("email") {
				email = c.String("email")
			}
			if c.IsSet("uid") {
				uid = c.String("uid")
			}

			admin, err := seed.CreateDefaultAdmin(c.Context, repos.UserRepository, uid, email, e.logger)
			if err != nil {
				return err
			}
			if admin == nil {
				return fmt.Errorf("no admin profile created for %q", email)
			}
			return printJSON(c, admin)
		},
	}
}

func (e *env) userService(repos *repositories.Repositories) (services.UserService, error) {
	svc, err := services.NewServices(services.Config{
		FanoutBatchSize: e.cfg.Fanout.BatchSize,
		CascadePolicy:   services.CascadePolicy(e.cfg.Accounts.CascadePolicy),
	}, services.Deps{Repos: repos, Logger: e.logger})
	if err != nil {
		return nil, err
	}
	return svc.UserService, nil
}

func accountCommand() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "replay account lifecycle events",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "provision the profile for an identity provider account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "name", Usage: "display name"},
				},
				Action: func(c *cli.Context) error {
					e, err := loadEnv(c)
					if err != nil {
						return err
					}
					repos, release, err := e.openStore(c)
					if err != nil {
						return err
					}
					defer release()

					users, err := e.userService(repos)
					if err != nil {
						return err
					}
					user, created, err := users.OnAccountCreate(c.Context, models.AuthUser{
						UID:         c.String("uid"),
						Email:       c.String("email"),
						DisplayName: c.String("name"),
					})
					if err != nil {
						return err
					}
					if !created {
						e.logger.Info().Str("userId", user.ID).Msg("Profile already existed")
					}
					return printJSON(c, user)
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a profile and cascade its data",
				ArgsUsage: "<uid>",
				Action: func(c *cli.Context) error {
					uid := strings.TrimSpace(c.Args().First())
					if uid == "" {
						return cli.Exit("a user id is required", 2)
					}
					e, err := loadEnv(c)
					if err != nil {
						return err
					}
					repos, release, err := e.openStore(c)
					if err != nil {
						return err
					}
					defer release()

					users, err := e.userService(repos)
					if err != nil {
						return err
					}
					cleanup, err := users.OnAccountDelete(c.Context, uid)
					if err != nil {
						return err
					}
					return printJSON(c, cleanup)
				},
			},
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "bearer tokens for local testing",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "sign an access token with the configured secret",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "role", Value: string(models.RoleStudent), Usage: "informational role claim"},
				},
				Action: func(c *cli.Context) error {
					e, err := loadEnv(c)
					if err != nil {
						return err
					}
					role := models.RoleType(c.String("role"))
					if !role.IsValid() {
						return cli.Exit(fmt.Sprintf("unknown role %q", role), 2)
					}

					token, expiresAt, err := bootstrap.NewJWTService(e.cfg).GenerateToken(c.String("uid"), c.String("email"), role)
					if err != nil {
						return err
					}
					return printJSON(c, map[string]interface{}{
						"token":     token,
						"expiresAt": expiresAt,
					})
				},
			},
		},
	}
}
