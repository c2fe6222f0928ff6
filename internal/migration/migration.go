package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/gorm"

	lessondomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson/domain"
	paymentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment/domain"
	prepaiddomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid/domain"
	ratedomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate/domain"
	studentdomain "github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student/domain"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// Run applies the schema. Postgres goes through the embedded versioned
// migrations under an advisory lock; sqlite (local and test databases) uses
// gorm AutoMigrate.
func Run(conn *gorm.DB, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	log = log.Named("migration")

	if conn.Dialector.Name() == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return runVersioned(sqlDB, log)
	}
	return autoMigrate(conn, log)
}

func autoMigrate(conn *gorm.DB, log *zap.Logger) error {
	err := conn.AutoMigrate(
		&studentdomain.Parent{},
		&studentdomain.Student{},
		&ratedomain.RateSchedule{},
		&ratedomain.SubjectRate{},
		&lessondomain.Lesson{},
		&prepaiddomain.Account{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentLesson{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("schema migrated", zap.String("mode", "auto"))
	return nil
}

func runVersioned(db *sql.DB, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return err
	}
	checksum, err := MigrationsChecksum()
	if err != nil {
		return err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return err
	}
	if currentVersion != latestVersion {
		return fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}

	log.Info("schema migrated",
		zap.String("mode", "versioned"),
		zap.Uint("version", currentVersion),
		zap.String("checksum", checksum),
	)
	return nil
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	if migrator == nil {
		return 0, errors.New("migrator is required")
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
