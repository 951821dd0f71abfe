package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/migrate"
)

// gooseCommands run against an open database connection.
var gooseCommands = map[string]func(ctx context.Context, runner *migrate.Runner, version string) error{
	"up":     passthrough("up"),
	"down":   passthrough("down"),
	"redo":   passthrough("redo"),
	"status": passthrough("status"),
	"version": func(ctx context.Context, runner *migrate.Runner, version string) error {
		if version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return runner.To(ctx, version)
	},
}

func passthrough(command string) func(context.Context, *migrate.Runner, string) error {
	return func(ctx context.Context, runner *migrate.Runner, _ string) error {
		return runner.Exec(ctx, command)
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|redo|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem.
	switch *cmd {
	case "create":
		if *name == "" {
			fail("missing -name for create", nil)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fail("failed to create migration", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fail("migration validation failed", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	run, ok := gooseCommands[*cmd]
	if !ok {
		fail("unknown -cmd value: "+*cmd, nil)
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Environment: cfg.App.Env,
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd": *cmd,
		"dir": *dir,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)
	runner, err := migrate.NewRunner(sqlDB, *dir)
	requireResource(ctx, logg, "goose", err)

	logg.Info(ctx, "migrate ready")
	if err := run(ctx, runner, *version); err != nil {
		logg.Error(ctx, "goose "+*cmd+" failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate finished")
}

func fail(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	} else {
		fmt.Fprintln(os.Stderr, msg)
	}
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
