package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"buddybot/internal/config"
	"buddybot/internal/database"
	"buddybot/internal/logging"
	"buddybot/internal/security"
	"buddybot/internal/service"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "buddybot",
	Short: "Inspect and maintain the BuddyBot local store",
	Long: `buddybot operates on the local BuddyBot database.

It creates the schema, reports what is waiting to sync, records sync
outcomes, resolves conflicts, prunes the audit tables and exports a
user's data.

Configuration comes from an optional config file, a .env file and
BUDDYBOT_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (yaml, toml or json)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app holds what a command needs. It is opened per command and closed
// when the command returns.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  io.Closer
	db       *database.DB
	stores   service.Stores
	settings *service.SettingsService
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, logFile := logging.New(cfg)

	db, err := database.InitializeWithConfig(cfg, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		logFile.Close()
		return nil, err
	}

	var sealer *security.Sealer
	if cfg.MessageKey != "" {
		if sealer, err = security.NewSealer(cfg.MessageKey); err != nil {
			db.Close()
			logFile.Close()
			return nil, err
		}
	}

	stores := service.NewStores(db, sealer)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		logFile:  logFile,
		db:       db,
		stores:   stores,
		settings: service.NewSettingsService(stores.Settings, logger),
	}
	if err := a.registerDevice(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// registerDevice pins the configured device id and records the app version
func (a *app) registerDevice(ctx context.Context) error {
	if a.cfg.DeviceID != "" {
		if err := a.settings.SetDeviceID(ctx, a.cfg.DeviceID); err != nil {
			return err
		}
	}
	return a.settings.SetAppVersion(ctx, a.cfg.AppVersion)
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
	a.logFile.Close()
}

func (a *app) syncService() *service.SyncService {
	return service.NewSyncService(a.stores.Sync, a.settings, a.logger)
}

func (a *app) maintenanceService() *service.MaintenanceService {
	return service.NewMaintenanceService(a.stores.Maintenance, a.cfg.RetentionDays, a.logger)
}

func (a *app) storageService(ctx context.Context) (*service.StorageService, error) {
	email, err := service.NewEmailService(ctx, a.cfg.AWSRegion, a.cfg.SESFromEmail, a.cfg.SESFromName, a.logger)
	if err != nil {
		return nil, err
	}
	return service.NewStorageService(a.stores, a.settings, email, a.cfg.AppVersion, a.logger), nil
}

// withApp adapts a command body that needs an open app to cobra's RunE
func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, a, args)
	}
}
