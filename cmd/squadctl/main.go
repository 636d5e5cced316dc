package main

import (
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"daily-squad/internal/auth"
	"daily-squad/internal/config"
	"daily-squad/internal/database"
	"daily-squad/internal/deadline"
	"daily-squad/internal/jobs"
	"daily-squad/internal/repository"
	"daily-squad/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	cliApp := &cli.App{
		Name:  "squadctl",
		Usage: "daily squad maintenance commands",
		Commands: []*cli.Command{
			migrateCommand(cfg),
			applySQLCommand(cfg),
			sweepCommand(cfg, logger),
			tokenCommand(cfg),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func connect(cfg *config.Config) error {
	if err := database.Connect(cfg.Database.Dialect, cfg.GetDSN()); err != nil {
		return err
	}
	return nil
}

func migrateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "create or update all tables",
		Action: func(c *cli.Context) error {
			if err := connect(cfg); err != nil {
				return err
			}
			defer database.Close()

			if err := database.AutoMigrate(); err != nil {
				return err
			}
			fmt.Printf("Migrated %d tables\n", len(database.Models()))
			return nil
		},
	}
}

func applySQLCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "apply-sql",
		Usage:     "execute a SQL file against the postgres database",
		ArgsUsage: "<file.sql>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("a SQL file is required")
			}
			if cfg.Database.Dialect != "postgres" {
				return fmt.Errorf("apply-sql needs DB_DIALECT=postgres, got %s", cfg.Database.Dialect)
			}

			statements, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			db, err := sql.Open("postgres", cfg.GetDSN())
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := db.PingContext(c.Context); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}

			if _, err := db.ExecContext(c.Context, string(statements)); err != nil {
				return fmt.Errorf("failed to execute %s: %w", path, err)
			}
			fmt.Printf("Applied %s\n", path)
			return nil
		},
	}
}

func sweepCommand(cfg *config.Config, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "advance due events and approve outcomes past their challenge window",
		Action: func(c *cli.Context) error {
			if err := connect(cfg); err != nil {
				return err
			}
			defer database.Close()

			clock := deadline.SystemClock{}
			opts := services.OptionsFromConfig(cfg)
			opts.Clock = clock
			opts.Logger = logger
			svc := services.New(repository.NewRepository(database.GetDB()), opts)

			jobs.NewLifecycleJob(svc.Lifecycle, clock, logger, time.Minute).RunOnce(c.Context)

			approved, err := jobs.NewDeadlineSweeper(svc.Outcomes, clock, logger, time.Minute).RunOnce(c.Context)
			if err != nil {
				return err
			}
			fmt.Printf("Approved %d outcomes\n", approved)
			return nil
		},
	}
}

func tokenCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an API token for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user id (uuid)", Required: true},
			&cli.StringFlag{Name: "nickname", Usage: "display name carried in the token"},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			userID, err := uuid.Parse(c.String("user"))
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			auth.InitJWT(cfg.App.JWTSecret)
			token, err := auth.GenerateToken(userID, c.String("nickname"), c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
