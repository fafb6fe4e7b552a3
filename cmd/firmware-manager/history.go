package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"firmware-manager/internal/db"
	"firmware-manager/internal/journal"
	"firmware-manager/migrations"
)

func newHistoryCmd() *cobra.Command {
	var (
		flagDevice string
		flagLimit  int
		flagJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the firmware update journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, err := db.OpenSQLite(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.RunMigrations(cfg.DBPath, migrations.FS); err != nil {
				return err
			}

			repo := &journal.SQLiteRepo{DB: database}
			entries, err := repo.List(flagDevice, flagLimit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			if flagJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return printHistory(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&flagDevice, "device", "", "Only show entries for this device name")
	cmd.Flags().IntVar(&flagLimit, "limit", 50, "Maximum number of entries")
	cmd.Flags().BoolVar(&flagJSON, "json", false, "Print entries as JSON")

	return cmd
}

func printHistory(out io.Writer, entries []journal.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no updates recorded")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDEVICE\tBACKEND\tFROM\tTO\tOUTCOME\tMESSAGE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime),
			e.Device, dash(e.Backend), dash(e.From), dash(e.To), e.Outcome, e.Message)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
