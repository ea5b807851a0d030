package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"chatqa/internal/config"
	"chatqa/internal/domain"
	"chatqa/internal/source"
	"chatqa/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	configPath string // overridable via --config flag
	logLevel   string // overrides general.logLevel when set
	logFile    io.Closer
)

func main() {
	root := newRootCmd()
	err := root.Execute()
	if logFile != nil {
		logFile.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatqa",
		Short:         "chatqa: answer questions about a group chat transcript",
		Long:          "chatqa fetches member messages from a messages API and answers natural-language questions about trips, cars and restaurants.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file, .json or .yaml (default: ~/.chatqa/config.json)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(askCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(snapshotCmd())
	root.AddCommand(configCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(versionCmd())

	return root
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig reads .env, the config file (falling back to defaults when it
// does not exist) and environment overrides, then configures the logger.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load(".env")

	cfgPath := resolveConfigPath()
	cfg, found, err := config.LoadOrDefaults(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.General.LogLevel = strings.ToLower(logLevel)
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	if err := setupLogger(cfg.General); err != nil {
		return nil, err
	}
	logger.Debug("config loaded", "path", cfgPath, "found", found)
	return cfg, nil
}

func setupLogger(g config.GeneralConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	if g.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(g.LogFile), 0o755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		if logFile != nil {
			logFile.Close()
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

// sourceFlags selects an offline source instead of the configured one.
type sourceFlags struct {
	file string
	db   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "read messages from a local JSON file")
	cmd.Flags().StringVar(&f.db, "db", "", "read messages from the latest snapshot in this SQLite database")
}

// openSource picks the message source: --file, then --db, then the config's
// file, snapshot database and URL in that order. The returned close function
// is never nil.
func openSource(cfg *config.Config, f sourceFlags) (domain.MessageSource, func() error, error) {
	noop := func() error { return nil }
	file, db := f.file, f.db
	if file == "" && db == "" {
		file, db = cfg.Source.File, cfg.Source.SnapshotDB
	}
	switch {
	case file != "":
		return source.NewFileSource(file), noop, nil
	case db != "":
		st, err := store.NewSQLiteStore(db, logger)
		if err != nil {
			return nil, noop, err
		}
		return st, st.Close, nil
	case cfg.Source.URL != "":
		return newHTTPSource(cfg), noop, nil
	}
	return nil, noop, fmt.Errorf("no message source configured")
}

func newHTTPSource(cfg *config.Config) *source.HTTPSource {
	return source.NewHTTPSource(source.HTTPConfig{
		URL:        cfg.Source.URL,
		APIKey:     cfg.Source.APIKey,
		Timeout:    time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Source.MaxRetries,
		Logger:     logger,
	})
}

func defaultSnapshotDB(cfg *config.Config) string {
	if cfg.Source.SnapshotDB != "" {
		return cfg.Source.SnapshotDB
	}
	return filepath.Join(config.DefaultConfigDir(), "snapshots.db")
}

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", cfgPath)
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "chatqa", version)
		},
	}
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
