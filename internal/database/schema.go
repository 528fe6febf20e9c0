package database

import (
	"context"
	"fmt"
	"log/slog"

	"videotube/internal/config"
	"videotube/internal/observability"

	"gorm.io/gorm"
)

// Values of DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaStatus is what `migrate status` prints.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

func schemaMode(cfg *config.Config) string {
	if cfg.DBSchemaMode == "" {
		return SchemaModeHybrid
	}
	return cfg.DBSchemaMode
}

// schemaPolicy decides which of the two schema paths run.
//
//	sqlite          AutoMigrate only; the embedded SQL is Postgres dialect
//	sql             embedded migrations only
//	auto            AutoMigrate only, refused on shared environments unless
//	                DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set
//	hybrid          migrations everywhere, AutoMigrate on top in development
func schemaPolicy(cfg *config.Config) (runSQL bool, runAuto bool, err error) {
	mode := schemaMode(cfg)
	shared := cfg.IsProduction() || cfg.Env == "staging" || cfg.Env == "stage"

	if cfg.DBDriver == "sqlite" {
		if mode == SchemaModeSQL {
			return false, false, fmt.Errorf("schema mode %q needs the postgres driver", mode)
		}
		return false, true, nil
	}

	switch mode {
	case SchemaModeSQL:
		return true, false, nil
	case SchemaModeAuto:
		if shared && !cfg.DBAutoMigrateAllowDestructive {
			return false, false, fmt.Errorf("schema mode %q is disabled in %s", mode, cfg.Env)
		}
		return false, true, nil
	case SchemaModeHybrid:
		return true, !shared, nil
	}
	return false, false, fmt.Errorf("unknown schema mode %q", mode)
}

// AutoMigrate syncs every persistent model with GORM.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date for cfg.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return err
	}
	if runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return err
		}
	}
	if runAuto {
		observability.Logger.InfoContext(ctx, "auto-migrating engagement tables",
			slog.String("mode", schemaMode(cfg)), slog.String("driver", cfg.DBDriver))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	runSQL, runAuto, err := schemaPolicy(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               schemaMode(cfg),
		Environment:        cfg.Env,
		WillRunSQL:         runSQL,
		WillRunAutoMigrate: runAuto,
	}
	if !runSQL {
		return status, nil
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied
	status.PendingMigrations = pendingMigrations(applied, GetMigrations())
	return status, nil
}
