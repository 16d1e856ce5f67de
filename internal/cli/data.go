package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/config"
	"github.com/jmccallister93/Daily-Digits/internal/store"
	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

// The data commands work on the database file directly. Stop the server
// first, or it will write its in-memory state back.
func newDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Inspect or reset the local database (server must be stopped)",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.AddCommand(newDataKeysCmd(), newDataResetCmd())
	return cmd
}

func withDB(fn func(db *store.DB) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func newDataKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(db *store.DB) error {
				keys, err := db.ListDocumentKeys()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, ui.LabelValue("db", db.Path))
				if len(keys) == 0 {
					fmt.Fprintln(out, ui.Muted.Render("no documents stored"))
				}
				for _, k := range keys {
					fmt.Fprintf(out, "- %s\n", k)
				}
				return nil
			})
		},
	}
}

func newDataResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset [key...]",
		Short: "Delete stored documents and decay history; the next start uses defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes data; pass --yes to confirm")
			}
			keys := args
			if len(keys) == 0 {
				keys = []string{store.KeyCharacterSheet, store.KeyActivityLog, store.KeyDecaySettings}
			}
			return withDB(func(db *store.DB) error {
				for _, k := range keys {
					if err := db.DeleteDocument(k); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", ui.IconDone, k)
				}
				if len(args) > 0 {
					return nil
				}
				n, err := db.PruneDecayEvents(0)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s cleared %d decay event(s)\n", ui.IconDone, n)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
