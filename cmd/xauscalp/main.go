package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alejandrodnm/xauscalp/config"
)

// flags compartidos por todos los subcomandos
var (
	configPath string
	verbose    bool
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:           "xauscalp",
	Short:         "XAUUSD scalping signal bot",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "config/config.yaml", "path to config file (empty: env + defaults only)")
	pf.BoolVar(&verbose, "verbose", false, "set log level to debug")
	pf.StringVar(&logFormat, "format", "", "log format: text|json (overrides config)")

	rootCmd.AddCommand(runCmd, backtestCmd, reportCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("xauscalp exited with error", "err", err)
		os.Exit(1)
	}
}

// loadConfig carga la configuración y deja el logger listo.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
