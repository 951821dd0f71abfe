package migrate

import (
	"context"
	"fmt"

	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db"
	"github.com/rentease/rentease-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot. It only acts in dev with
// RENTEASE_AUTO_MIGRATE set, and never against sqlite since the SQL targets postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.App.AutoMigrate {
		return nil
	}
	if cfg.DB.Driver == "sqlite" {
		logg.Warn(ctx, "migrate.autorun.skipped_sqlite")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	runner, err := NewRunner(sqlDB, DefaultDir)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir})
	logg.Info(ctx, "migrate.autorun.start")
	if err := runner.Exec(ctx, "up"); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.autorun.done")
	return nil
}
