package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-intake-backend/internal/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cfg.DBPath)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		log.Info().Str("db", cfg.DBPath).Msg("schema up to date")
		return nil
	},
}

var purgeOlderThan time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete drafts not updated within DRAFT_TTL (or --older-than)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := cfg.Store.DraftTTL
		if purgeOlderThan > 0 {
			ttl = purgeOlderThan
		}
		if ttl <= 0 {
			return fmt.Errorf("nothing to purge: DRAFT_TTL is 0 and --older-than not set")
		}
		db, err := openDB(cfg.DBPath)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		n, err := repo.PurgeDrafts(cmd.Context(), db, time.Now().Add(-ttl))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "purged %d draft rows\n", n)
		return nil
	},
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "age threshold overriding DRAFT_TTL")
}
