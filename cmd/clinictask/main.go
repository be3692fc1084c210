// @title			clinictask API
// @version		1.0
// @description	Clinic task inbox with follow-up lineages, alert ingestion and patient reactivation.
// @BasePath		/api/v1

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/clinictask/internal/config"
	"github.com/mtlprog/clinictask/internal/database"
	"github.com/mtlprog/clinictask/internal/handler"
	"github.com/mtlprog/clinictask/internal/logger"
	"github.com/mtlprog/clinictask/internal/service"
)

func main() {
	app := &cli.App{
		Name:  "clinictask",
		Usage: "Clinic task lifecycle and follow-up engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   string(logger.FormatJSON),
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Value:   config.DefaultStore,
				Usage:   "Task store (memory, postgres)",
				EnvVars: []string{"STORE"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL (postgres store)",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "rules-path",
				Aliases: []string{"r"},
				Value:   config.DefaultRulesPath,
				Usage:   "Clinic rules YAML file",
				EnvVars: []string{"RULES_PATH"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")), logger.ParseFormat(c.String("log-format")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
				},
				Action: runServe,
			},
			{
				Name:   "scan-inactive",
				Usage:  "Open reactivation follow-ups for inactive patients of every clinic",
				Action: runScanInactive,
			},
			{
				Name:  "migrate",
				Usage: "Manage the PostgreSQL schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "Apply all pending migrations", Action: runMigrate(database.RunMigrations)},
					{Name: "down", Usage: "Roll back the latest migration", Action: runMigrate(database.RollbackMigration)},
					{Name: "status", Usage: "Print migration status", Action: runMigrate(database.MigrationStatus)},
				},
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func runServe(c *cli.Context) error {
	ctx := c.Context

	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	rules, err := config.LoadRules(c.String("rules-path"))
	if err != nil {
		return fmt.Errorf("failed to load clinic rules: %w", err)
	}

	b, err := openBackend(ctx, c.String("store"), c.String("database-url"), rules)
	if err != nil {
		return err
	}
	defer b.Close()

	h := handler.New(handler.Config{
		Deps:    b.deps,
		Clinics: rules.ClinicIDs(),
		Health:  b.health,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server",
			"server_addr", "http://localhost:"+port,
			"store", b.name,
			"clinics", len(rules.ClinicIDs()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runScanInactive(c *cli.Context) error {
	ctx := c.Context

	rules, err := config.LoadRules(c.String("rules-path"))
	if err != nil {
		return fmt.Errorf("failed to load clinic rules: %w", err)
	}

	b, err := openBackend(ctx, c.String("store"), c.String("database-url"), rules)
	if err != nil {
		return err
	}
	defer b.Close()

	policy := service.NewFollowUpPolicy(b.deps)

	var errs []error
	for _, clinicID := range rules.ClinicIDs() {
		if clinic, _ := rules.Clinic(clinicID); clinic.Reactivation == nil {
			slog.Debug("clinic has no reactivation rules, skipping", "clinic_id", clinicID)
			continue
		}
		if _, err := policy.ProcessInactivePatients(ctx, clinicID); err != nil {
			errs = append(errs, fmt.Errorf("clinic %s: %w", clinicID, err))
		}
	}

	return errors.Join(errs...)
}

func runMigrate(fn func(context.Context, *pgxpool.Pool) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		ctx := c.Context

		db, err := database.New(ctx, c.String("database-url"), database.DefaultPoolConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		return fn(ctx, db.Pool())
	}
}
