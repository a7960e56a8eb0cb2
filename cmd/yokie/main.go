package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yokie-karaoke/yokie-server/internal/config"
	"github.com/yokie-karaoke/yokie-server/internal/database"
	"github.com/yokie-karaoke/yokie-server/internal/logging"
	"github.com/yokie-karaoke/yokie-server/internal/maintenance"
	"github.com/yokie-karaoke/yokie-server/internal/web"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI flags
var (
	envFile   string
	verbosity int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "yokie",
		Short:        "Yokie - Karaoke queue and song library server",
		Long:         `Yokie serves the karaoke song library, singer history, tags and play queue over a JSON API.`,
		SilenceUsage: true,
		RunE:         run,
	}

	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", config.DefaultEnvFile, "Dotenv file with configuration")
	rootCmd.PersistentFlags().StringP("db", "d", "", "SQLite database path (or set DB_PATH env var)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v debug, -vv trace)")

	rootCmd.Flags().IntP("port", "p", 0, "HTTP server port (required, or set PORT env var)")
	rootCmd.Flags().StringP("bind", "b", "", "IP address to bind to (e.g., 127.0.0.1, 0.0.0.0)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("yokie %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed default preferences",
		RunE:  migrate,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newViper reads the environment and dotenv file, with command line flags taking precedence
func newViper(cmd *cobra.Command) (*viper.Viper, error) {
	v, err := config.NewViper(envFile)
	if err != nil {
		return nil, err
	}

	bindings := map[string]string{
		config.KeyPort:   "port",
		config.KeyBind:   "bind",
		config.KeyDBPath: "db",
	}
	for key, name := range bindings {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	return v, nil
}

// applyVerbosity raises the configured log level for -v / -vv
func applyVerbosity(logCfg *config.LogConfig) {
	switch {
	case verbosity == 1:
		logCfg.Level = "debug"
	case verbosity >= 2:
		logCfg.Level = "trace"
	}
}

func run(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	// Validate bind address if provided
	if cfg.Bind != "" {
		if ip := net.ParseIP(cfg.Bind); ip == nil {
			return fmt.Errorf("invalid bind address: %s", cfg.Bind)
		}
	}

	applyVerbosity(&cfg.Log)
	logging.Apply(cfg.Log)

	if len(cfg.CORSOrigins) == 0 {
		log.Info().Msg("No CORS origins configured; cross-origin requests are disabled")
	}

	log.Info().
		Str("version", version).
		Int("port", cfg.Port).
		Str("bind", cfg.Bind).
		Str("protocol", cfg.Protocol).
		Str("database", cfg.DBPath).
		Str("cdg_path", cfg.CDGPath).
		Msg("Starting Yokie")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.ValidatePreferences(ctx); err != nil {
		log.Fatal().Err(err).Msg("Preferences are incomplete")
	}

	scheduler := maintenance.NewScheduler(db, maintenance.Schedules{
		Optimize: cfg.MaintenanceSchedule,
		Vacuum:   cfg.VacuumSchedule,
	})
	if err := scheduler.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start database maintenance")
	}
	defer scheduler.Stop()

	// Only logging follows live edits; everything else needs a restart
	if config.Watch(v, func(updated *config.Config) {
		applyVerbosity(&updated.Log)
		logging.SetLevel(updated.Log.Level)
	}) {
		log.Debug().Str("file", v.ConfigFileUsed()).Msg("Watching configuration file")
	}

	server := web.NewServer(db, cfg, version)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server error")
	}

	log.Info().Msg("Yokie stopped")
	return nil
}

func migrate(cmd *cobra.Command, args []string) error {
	v, err := newViper(cmd)
	if err != nil {
		return err
	}

	logCfg := config.LogConfig{Level: v.GetString(config.KeyLogLevel)}
	applyVerbosity(&logCfg)
	logging.Apply(logCfg)

	dbPath, err := config.DBPath(v)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd.Context(), dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info().Str("database", db.Path()).Msg("Database is up to date")
	return nil
}

// openDatabase opens the database, applies migrations and seeds missing preferences
func openDatabase(ctx context.Context, path string) (*database.DB, error) {
	db, err := database.New(path)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	// missing preferences are reported, not fatal
	seeded, err := db.InitializeDefaults(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed preferences: %w", err)
	}
	if len(seeded) > 0 {
		log.Warn().Strs("preferences", seeded).Msg("Required preferences were missing and now use defaults")
	}

	return db, nil
}
