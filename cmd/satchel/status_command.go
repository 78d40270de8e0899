package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"satchel/internal/library"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue and library health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				pending, err := a.queue.Len()
				if err != nil {
					return err
				}
				health, err := a.store.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queue directory: %s\n", a.cfg.Paths.QueueDir)
				fmt.Fprintf(out, "Pending items:   %d\n", pending)
				fmt.Fprintf(out, "Library:         %s\n", a.cfg.LibraryDBPath())

				rows := [][]string{
					{string(library.StatusQueued), strconv.Itoa(health.Queued)},
					{string(library.StatusProcessing), strconv.Itoa(health.Processing)},
					{string(library.StatusReady), strconv.Itoa(health.Ready)},
					{string(library.StatusFailed), strconv.Itoa(health.Failed)},
					{string(library.StatusReviewRequired), strconv.Itoa(health.ReviewRequired)},
					{string(library.StatusArchived), strconv.Itoa(health.Archived)},
					{"total", strconv.Itoa(health.Total)},
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, 1))
				return nil
			})
		},
	}
}
