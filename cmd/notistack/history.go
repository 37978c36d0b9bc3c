package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/adapter/output"
	"github.com/jmylchreest/notistack/internal/core"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/store"
)

var historyOpts struct {
	since   string
	app     string
	urgency string
	search  string
	limit   int
	output  string
	noColor bool
	bodyLen int
}

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "List recorded notifications, newest first",
	Long: `List notifications recorded by notistackd, newest first.

Examples:
  # Everything from the last day
  notistack history --since 24h

  # Critical notifications from one app as JSON
  notistack history --app Slack --urgency critical --output json

  # Pick one with a launcher
  notistack history --output dmenu | fuzzel --dmenu`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only show notifications newer than this (e.g. 48h, 7d, 1w)")
	historyCmd.Flags().StringVar(&historyOpts.app, "app", "",
		"Only show notifications from this application")
	historyCmd.Flags().StringVar(&historyOpts.urgency, "urgency", "",
		"Only show this urgency (low, normal, critical)")
	historyCmd.Flags().StringVarP(&historyOpts.search, "search", "s", "",
		"Case-insensitive search over summary and body")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Maximum number of notifications (0=unlimited)")
	historyCmd.Flags().StringVarP(&historyOpts.output, "output", "o", string(output.FormatPlain),
		"Output format: plain, dmenu, json, yaml")
	historyCmd.Flags().BoolVar(&historyOpts.noColor, "no-color", false,
		"Disable coloured plain output")
	historyCmd.Flags().IntVar(&historyOpts.bodyLen, "body-length", output.DefaultOptions().BodyMaxLen,
		"Truncate bodies to this many characters (0=no limit)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	opts, err := historyListOptions()
	if err != nil {
		return err
	}

	// The limit is applied after searching so --search sees the full window.
	limit := opts.Limit
	if historyOpts.search != "" {
		opts.Limit = 0
	}

	st, err := getStore()
	if err != nil {
		return err
	}
	notifications, err := st.List(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if historyOpts.search != "" {
		notifications = core.Search(notifications, historyOpts.search)
		if limit > 0 && len(notifications) > limit {
			notifications = notifications[:limit]
		}
	}

	fmtOpts := output.DefaultOptions()
	fmtOpts.Color = !historyOpts.noColor
	fmtOpts.BodyMaxLen = historyOpts.bodyLen
	formatter, err := output.NewFormatter(output.FormatType(historyOpts.output), fmtOpts)
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, notifications)
}

func historyListOptions() (store.ListOptions, error) {
	opts := store.ListOptions{
		AppName: historyOpts.app,
		Limit:   historyOpts.limit,
	}
	if historyOpts.limit < 0 {
		return opts, fmt.Errorf("--limit must not be negative")
	}

	if historyOpts.since != "" {
		since, err := core.ParseDuration(historyOpts.since)
		if err != nil {
			return opts, err
		}
		opts.Since = since
	}

	if historyOpts.urgency != "" {
		u, err := model.ParseUrgency(historyOpts.urgency)
		if err != nil {
			return opts, err
		}
		opts.Urgency = &u
	}
	return opts, nil
}
