package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"satchel/internal/library"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List library records",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]library.Status, 0, len(statusFlags))
			for _, raw := range statusFlags {
				status, ok := library.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withApp(func(a *app) error {
				records, err := a.store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "Library is empty")
					return nil
				}
				colorize := shouldColorize(out)
				rows := make([][]string, 0, len(records))
				for _, record := range records {
					rows = append(rows, []string{
						record.ID,
						record.CaptureType,
						truncate(record.Title, 40),
						colorizeStatus(string(record.Status), colorize),
						record.SessionID,
						record.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Type", "Title", "Status", "Session", "Updated"},
					rows,
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var showLog bool

	cmd := &cobra.Command{
		Use:   "show <record-id>",
		Short: "Show one record in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				record, err := a.store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("record %s not found", args[0])
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintf(out, "ID:          %s\n", record.ID)
				fmt.Fprintf(out, "Type:        %s\n", record.CaptureType)
				fmt.Fprintf(out, "Status:      %s\n", colorizeStatus(string(record.Status), colorize))
				fmt.Fprintf(out, "Title:       %s\n", record.Title)
				if record.URL != "" {
					fmt.Fprintf(out, "URL:         %s\n", record.URL)
				}
				if record.Summary != "" {
					fmt.Fprintf(out, "Summary:     %s\n", record.Summary)
				}
				if len(record.Tags) > 0 {
					fmt.Fprintf(out, "Tags:        %s\n", strings.Join(record.Tags, ", "))
				}
				if len(record.Categories) > 0 {
					fmt.Fprintf(out, "Categories:  %s\n", strings.Join(record.Categories, ", "))
				}
				if len(record.Purposes) > 0 {
					fmt.Fprintf(out, "Purposes:    %s\n", strings.Join(record.Purposes, ", "))
				}
				if record.Price != "" {
					fmt.Fprintf(out, "Price:       %s\n", record.Price)
				}
				if record.HasCoordinates() {
					fmt.Fprintf(out, "Location:    %.5f, %.5f\n", *record.Latitude, *record.Longitude)
				}
				if record.PlaceID != "" {
					fmt.Fprintf(out, "Place:       %s\n", record.PlaceID)
				}
				if record.SessionID != "" {
					fmt.Fprintf(out, "Session:     %s\n", record.SessionID)
				}
				if record.MasterCaptureID != "" {
					fmt.Fprintf(out, "Master:      %s\n", record.MasterCaptureID)
				}
				fmt.Fprintf(out, "Source:      %s\n", record.Source)
				fmt.Fprintf(out, "Favorite:    %s\n", yesNo(record.IsFavorite))
				fmt.Fprintf(out, "Created:     %s\n", record.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Updated:     %s\n", record.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
				if record.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:       %s\n", record.ErrorMessage)
				}
				if record.RetryCount > 0 {
					fmt.Fprintf(out, "Retries:     %d\n", record.RetryCount)
				}
				if showLog && len(record.ProcessingLog) > 0 {
					fmt.Fprintln(out, "Processing log:")
					for _, entry := range record.ProcessingLog {
						fmt.Fprintf(out, "  %s\n", entry)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showLog, "log", "l", false, "Include the processing log")
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <record-id>",
		Short: "Re-queue a failed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				record, err := a.manager.Retry(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Record %s re-queued\n", record.ID)
				return nil
			})
		},
	}
}

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <record-id>",
		Short: "Accept a record waiting for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				record, err := a.manager.Confirm(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Record %s confirmed (%s)\n", record.ID, record.Status)
				return nil
			})
		},
	}
}

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <record-id>",
		Short: "Archive a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				record, err := a.manager.Archive(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Record %s archived\n", record.ID)
				return nil
			})
		},
	}
}

func newReprocessCommand(ctx *commandContext) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reprocess [record-id]",
		Short: "Send ready records back through enrichment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("record id required unless --all is set")
			}
			return ctx.withApp(func(a *app) error {
				out := cmd.OutOrStdout()
				if all {
					count, err := a.manager.RefreshProcessedItems(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Re-queued %d ready records\n", count)
					return nil
				}
				record, err := a.manager.Reprocess(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Record %s re-queued for reprocessing\n", record.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Re-queue every ready record")
	return cmd
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	if max <= 3 {
		return value[:max]
	}
	return value[:max-3] + "..."
}
