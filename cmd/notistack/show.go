package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notistack/internal/adapter/output"
	"github.com/jmylchreest/notistack/internal/core"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/store"
)

var showOpts struct {
	output string
}

var showCmd = &cobra.Command{
	Use:   "show <id|index>",
	Short: "Show a single notification",
	Long: `Show one notification by ID, unique ID prefix, or 1-based index into
the newest-first history.

Examples:
  notistack show 01HZX3K9
  notistack show 1 --output json
  notistack history -o dmenu | fuzzel --dmenu | cut -d' ' -f1 | xargs notistack show`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOpts.output, "output", "o", string(output.FormatYAML),
		"Output format: plain, dmenu, json, yaml")
}

func runShow(cmd *cobra.Command, args []string) error {
	st, err := getStore()
	if err != nil {
		return err
	}
	notifications, err := st.List(cmd.Context(), store.ListOptions{})
	if err != nil {
		return err
	}

	n := findNotification(notifications, args[0])
	if n == nil {
		return fmt.Errorf("notification %q not found", args[0])
	}

	fmtOpts := output.DefaultOptions()
	fmtOpts.ShowIndex = false
	fmtOpts.BodyMaxLen = 0
	formatter, err := output.NewFormatter(output.FormatType(showOpts.output), fmtOpts)
	if err != nil {
		return err
	}
	return formatter.Format(os.Stdout, []model.Notification{*n})
}

// findNotification treats short numeric arguments as indexes and anything
// else as an ID or ID prefix.
func findNotification(notifications []model.Notification, arg string) *model.Notification {
	if idx, err := strconv.Atoi(arg); err == nil && len(arg) < 4 {
		return core.LookupByIndex(notifications, idx)
	}
	return core.LookupByID(notifications, arg)
}
