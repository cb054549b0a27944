package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/victornm/techbridge/internal/config"
	"github.com/victornm/techbridge/internal/server"
	"github.com/victornm/techbridge/internal/telemetry"
)

var rootCmd = &cobra.Command{
	Use:           "techbridge",
	Short:         "Tech Bridge assessment and learning API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("techbridge: %v", err)
	}
}

// loadConfig reads defaults, then .env, the config file and TECHBRIDGE_* env vars, and
// installs the configured logger as the slog default.
func loadConfig(cmd *cobra.Command) (server.Config, error) {
	c := server.DefaultConfig()

	p, _ := cmd.Flags().GetString("config")
	if p == "" {
		p = os.Getenv("CONFIG_PATH")
	}

	if err := config.Load(config.Options{File: p, DotEnv: []string{".env"}}, &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	l, err := telemetry.NewLogger(os.Stdout, c.Log.Level, c.Log.Format)
	if err != nil {
		return c, fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(l)

	return c, nil
}
