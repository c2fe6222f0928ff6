package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/clock"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/config"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/lesson"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/migration"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/observability"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/payment"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/prepaid"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/rate"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/report"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/seed"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/server"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/student"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/internal/summary"
	"github.com/l2laihub/love2learn-tutoring-app-sub005/pkg/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "love2learn",
		Short:   "Love2Learn tutoring billing CLI",
		Version: readVersionFromEnv(),
	}
	root.AddCommand(newMigrateCmd(), newSeedCmd(), newServeCmd(), newAllCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed demo families, rates and lessons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the billing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServe()
			return nil
		},
	}
}

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Apply the schema, seed demo data, then serve",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrate(); err != nil {
				return err
			}
			if err := runSeed(); err != nil {
				return err
			}
			runServe()
			return nil
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runSeed() error {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			return seed.EnsureDemoData(conn)
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

func runServe() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		student.Module,
		rate.Module,
		prepaid.Module,
		lesson.Module,
		payment.Module,
		summary.Module,
		report.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
