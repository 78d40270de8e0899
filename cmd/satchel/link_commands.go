package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"satchel/internal/links"
)

func newLinkCommand(ctx *commandContext) *cobra.Command {
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Wrap and resolve signed share links",
	}

	linkCmd.AddCommand(newLinkWrapCommand(ctx))
	linkCmd.AddCommand(newLinkResolveCommand(ctx))

	return linkCmd
}

func newLinkWrapCommand(ctx *commandContext) *cobra.Command {
	var titleFlag string

	cmd := &cobra.Command{
		Use:   "wrap <url>",
		Short: "Produce a signed share link for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				wrapped, err := a.manager.WrapLink(args[0], titleFlag)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), links.FormatShareText(titleFlag, wrapped))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&titleFlag, "title", "", "Title carried in the link payload")
	return cmd
}

func newLinkResolveCommand(ctx *commandContext) *cobra.Command {
	var ingest bool

	cmd := &cobra.Command{
		Use:   "resolve <wrapped-url>",
		Short: "Verify a signed share link and print its target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(func(a *app) error {
				out := cmd.OutOrStdout()
				if ingest {
					item, err := a.manager.IngestWrappedLink(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued %s from wrapped link\n", item.Descriptor.ID)
					return nil
				}

				cfg := a.cfg
				wrapper, err := links.NewWrapper(cfg.Links.Secret, cfg.Links.Host, cfg.Links.Scheme)
				if err != nil {
					return err
				}
				payload, err := wrapper.ResolvePayload(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "URL:   %s\n", payload.URL)
				if payload.Title != "" {
					fmt.Fprintf(out, "Title: %s\n", payload.Title)
				}
				return nil
			})
		},
	}

	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().BoolVar(&ingest, "ingest", false, "Queue the resolved target as a new capture")
	return cmd
}
