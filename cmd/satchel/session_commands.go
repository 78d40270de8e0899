package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage capture sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionDuplicateCommand(ctx))
	sessionCmd.AddCommand(newSessionMergeCommand(ctx))
	sessionCmd.AddCommand(newSessionLockCommand(ctx))

	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				sessions, err := a.store.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No sessions")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						session.ID,
						truncate(session.Title, 40),
						session.LocationName,
						yesNo(session.LocationLocked),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Location", "Locked"},
					rows,
				))
				return nil
			})
		},
	}
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session and its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				session, err := a.store.GetSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if session == nil {
					return fmt.Errorf("session %s not found", args[0])
				}
				records, err := a.store.RecordsBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", session.ID)
				fmt.Fprintf(out, "Title:     %s\n", session.Title)
				if session.Summary != "" {
					fmt.Fprintf(out, "Summary:   %s\n", session.Summary)
				}
				if session.LocationName != "" {
					fmt.Fprintf(out, "Location:  %s\n", session.LocationName)
				}
				if session.HasCoordinates() {
					fmt.Fprintf(out, "Position:  %.5f, %.5f\n", *session.Latitude, *session.Longitude)
				}
				fmt.Fprintf(out, "Locked:    %s\n", yesNo(session.LocationLocked))
				fmt.Fprintf(out, "Records:   %d\n", len(records))

				if len(records) > 0 {
					colorize := shouldColorize(out)
					rows := make([][]string, 0, len(records))
					for _, record := range records {
						rows = append(rows, []string{
							record.ID,
							truncate(record.Title, 40),
							colorizeStatus(string(record.Status), colorize),
						})
					}
					fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Status"}, rows))
				}
				return nil
			})
		},
	}
}

func newSessionDuplicateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <session-id>",
		Short: "Clone a session with fresh record IDs and re-enqueue the clones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				newID, err := a.manager.Sessions().Duplicate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Duplicated session %s as %s\n", args[0], newID)
				return nil
			})
		},
	}
}

func newSessionMergeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "merge <from-session-id> <to-session-id>",
		Short: "Move all records from one session into another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				moved, err := a.manager.Sessions().Merge(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d records from %s into %s\n", moved, args[0], args[1])
				return nil
			})
		},
	}
}

func newSessionLockCommand(ctx *commandContext) *cobra.Command {
	var (
		nameFlag  string
		placeFlag string
	)

	cmd := &cobra.Command{
		Use:   "lock <session-id> <lat> <lon>",
		Short: "Lock a session's location so enrichment cannot overwrite it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("parse latitude: %w", err)
			}
			lon, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("parse longitude: %w", err)
			}
			return ctx.withApp(func(a *app) error {
				if err := a.store.LockSessionLocation(cmd.Context(), args[0], nameFlag, placeFlag, lat, lon); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Locked location for session %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "Human-readable location name")
	cmd.Flags().StringVar(&placeFlag, "place-id", "", "Place identifier")
	return cmd
}
