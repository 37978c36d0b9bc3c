package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/core"
	"github.com/jmylchreest/notistack/internal/store"
)

var appsOpts struct {
	since string
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Summarise history by application",
	RunE:  runApps,
}

func init() {
	rootCmd.AddCommand(appsCmd)

	appsCmd.Flags().StringVar(&appsOpts.since, "since", "",
		"Only count notifications newer than this (e.g. 48h, 7d, 1w)")
}

func runApps(cmd *cobra.Command, args []string) error {
	since, err := core.ParseDuration(appsOpts.since)
	if err != nil {
		return err
	}

	st, err := getStore()
	if err != nil {
		return err
	}
	notifications, err := st.List(cmd.Context(), store.ListOptions{Since: since})
	if err != nil {
		return err
	}

	counts := core.CountByApp(notifications)
	if len(counts) == 0 {
		fmt.Println("No notifications in history")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "APP\tCOUNT\tLATEST")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.AppName, humanize.Comma(int64(c.Count)), humanize.Time(c.Latest))
	}
	return tw.Flush()
}
