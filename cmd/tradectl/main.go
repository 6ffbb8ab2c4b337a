package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"github.com/OpenNSW/tradestats/internal/config"
	"github.com/OpenNSW/tradestats/internal/database"
	"github.com/OpenNSW/tradestats/internal/logging"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tradectl",
		Short: "Trade statistics maintenance tool",
		Long: `tradectl migrates the trade statistics database, seeds reference data
and ingests export and import spreadsheets from the command line.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./tradectl.yaml)")
	flags.String("sqlite", "", "use an embedded SQLite database at PATH instead of Postgres")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("database.sqlite", flags.Lookup("sqlite"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))

	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(seedCmd())
	cmd.AddCommand(ingestCmd())
	cmd.AddCommand(runsCmd())
	return cmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("received interrupt signal, stopping")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("tradectl")
		viper.SetConfigType("yaml")
	}

	// TRADESTATS_DATABASE_SQLITE, TRADESTATS_LOGGING_LEVEL, ...
	viper.SetEnvPrefix("TRADESTATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Logs go to stderr so command output stays clean.
	slog.SetDefault(logging.New(os.Stderr, viper.GetString("logging.level"), viper.GetString("logging.format")))
	return nil
}

// openDatabase connects to the configured database and brings the schema up to date.
// --sqlite bypasses the environment database configuration entirely.
func openDatabase(ctx context.Context) (*gorm.DB, error) {
	var dbCfg *config.DatabaseConfig
	if path := viper.GetString("database.sqlite"); path != "" {
		dbCfg = &config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: path}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		dbCfg = &cfg.Database
	}

	db, err := database.Open(dbCfg, logging.GormLevel(viper.GetString("logging.level")))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

// withDatabase runs fn with an open database and closes it afterwards.
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *gorm.DB) error) error {
	ctx := cmd.Context()
	db, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()
	return fn(ctx, db)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDatabase(cmd, func(context.Context, *gorm.DB) error {
				fmt.Fprintln(cmd.OutOrStdout(), "database schema is up to date")
				return nil
			})
		},
	}
}
