package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/core"
	"github.com/jmylchreest/notistack/internal/store"
)

var pruneOpts struct {
	olderThan string
	dryRun    bool
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old notifications from history",
	Long: `Remove old notifications from the persistent history.

Examples:
  # Remove notifications older than 7 days
  notistack prune --older-than 7d

  # Preview what would be removed (dry run)
  notistack prune --older-than 48h --dry-run`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().StringVar(&pruneOpts.olderThan, "older-than", "",
		"Remove notifications older than this duration (e.g., 48h, 7d, 1w)")
	pruneCmd.Flags().BoolVar(&pruneOpts.dryRun, "dry-run", false,
		"Show what would be removed without actually removing")
	_ = pruneCmd.MarkFlagRequired("older-than")
}

func runPrune(cmd *cobra.Command, args []string) error {
	duration, err := core.ParseDuration(pruneOpts.olderThan)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if duration == 0 {
		return fmt.Errorf("--older-than must be greater than zero")
	}
	cutoff := time.Now().Add(-duration)

	st, err := getStore()
	if err != nil {
		return err
	}

	if pruneOpts.dryRun {
		all, err := st.List(cmd.Context(), store.ListOptions{})
		if err != nil {
			return err
		}
		var stale int
		var oldest time.Time
		for _, n := range all {
			if n.CreatedAt.Before(cutoff) {
				stale++
				oldest = n.CreatedAt
			}
		}
		if stale == 0 {
			fmt.Println("No notifications to remove")
			return nil
		}
		fmt.Printf("Would remove %d notification(s), the oldest from %s\n", stale, humanize.Time(oldest))
		return nil
	}

	removed, err := st.Prune(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	if removed == 0 {
		fmt.Println("No notifications to remove")
		return nil
	}
	fmt.Printf("Removed %d notification(s)\n", removed)
	return nil
}
