// Command intake serves the social support application wizard API.
//
//	intake serve     run the HTTP API
//	intake migrate   create or update the database schema
//	intake purge     delete drafts older than DRAFT_TTL
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-intake-backend/internal/config"
	"github.com/tbourn/go-intake-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

var (
	envFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "intake",
	Short:         "Social support application intake backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnv(envFile); err != nil {
			return err
		}
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
		sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment (ignored when missing)")
	rootCmd.AddCommand(serveCmd, migrateCmd, purgeCmd)
}

// loadEnv applies path without overriding variables already set. A missing
// file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func appVersion() string {
	return sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("intake failed")
		os.Exit(1)
	}
}
