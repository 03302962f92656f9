package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/config"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	root := rootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	serve := serveCmd()
	root := &cobra.Command{
		Use:          "voxiscribe",
		Short:        "Exam platform API: attempts, autosave, scoring and proctoring",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, exportCmd(), useraddCmd(), migrateCmd())
	return root
}

// addStoreFlags registers the flags every command needs to reach the database.
func addStoreFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().String("db-driver", d.DBDriver, "database driver: sqlite or postgres")
	cmd.Flags().String("db-dsn", d.DBDSN, "database DSN (driver default when empty)")
	cmd.Flags().String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	cmd.Flags().String("log-format", d.LogFormat, "log format: text or json")
}

func setupLogging(v *viper.Viper) {
	var level slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
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
	var h slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("VOXISCRIBE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("voxiscribe")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/voxiscribe")
	v.AddConfigPath("/etc/voxiscribe")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}
	return v
}

// loadConfig resolves the command's settings and configures logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := viperForCmd(cmd)
	setupLogging(v)
	return config.Load(v)
}
