package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"satchel/internal/capture"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var (
		typeFlag     string
		idFlag       string
		urlFlag      string
		titleFlag    string
		descFlag     string
		tagsFlag     []string
		catsFlag     []string
		purposesFlag []string
		locationFlag string
		placeFlag    string
		priceFlag    string
		sessionFlag  string
		masterFlag   string
		payloadFlag  string
		actionFlag   string
		processNow   bool
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Enqueue a capture for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			captureType, ok := capture.ParseType(typeFlag)
			if !ok {
				return fmt.Errorf("unknown capture type %q", typeFlag)
			}
			action, ok := capture.ParseAction(actionFlag)
			if !ok {
				return fmt.Errorf("unknown action %q", actionFlag)
			}

			id := strings.TrimSpace(idFlag)
			if id == "" {
				id = uuid.NewString()
			}

			desc := capture.Descriptor{
				ID:              id,
				Type:            captureType,
				URL:             urlFlag,
				Title:           titleFlag,
				DescriptionText: descFlag,
				StyleTags:       tagsFlag,
				Categories:      catsFlag,
				Purposes:        purposesFlag,
				Location:        locationFlag,
				PlaceID:         placeFlag,
				Price:           priceFlag,
				SessionID:       sessionFlag,
				MasterCaptureID: masterFlag,
			}

			var payload []byte
			if payloadFlag != "" {
				data, err := os.ReadFile(payloadFlag)
				if err != nil {
					return fmt.Errorf("read payload file: %w", err)
				}
				payload = data
			}

			return ctx.withApp(func(a *app) error {
				item, path, err := a.manager.EnqueueCapture(cmd.Context(), action, desc, capture.SourceCapture, payload)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Queued capture %s (%s)\n", desc.ID, item.ID)
				fmt.Fprintf(out, "Queue file: %s\n", path)

				if processNow {
					summary, err := a.manager.ProcessPendingQueue(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Processed immediately: %d converted, %d retained\n", summary.Converted, summary.Retained)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", "web", "Capture type (web, image, video, audio, document)")
	cmd.Flags().StringVar(&idFlag, "id", "", "Stable capture ID (generated when omitted)")
	cmd.Flags().StringVarP(&urlFlag, "url", "u", "", "Source URL (required for web captures)")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Title supplied at capture time")
	cmd.Flags().StringVar(&descFlag, "description", "", "Free-form description text")
	cmd.Flags().StringSliceVar(&tagsFlag, "tag", nil, "Style tag (repeatable)")
	cmd.Flags().StringSliceVar(&catsFlag, "category", nil, "Category (repeatable)")
	cmd.Flags().StringSliceVar(&purposesFlag, "purpose", nil, "Purpose (repeatable)")
	cmd.Flags().StringVar(&locationFlag, "location", "", "Location as lat,lon")
	cmd.Flags().StringVar(&placeFlag, "place-id", "", "Place identifier")
	cmd.Flags().StringVar(&priceFlag, "price", "", "Price string")
	cmd.Flags().StringVar(&sessionFlag, "session", "", "Session ID to group under")
	cmd.Flags().StringVar(&masterFlag, "master", "", "Master capture ID for sibling shots")
	cmd.Flags().StringVar(&payloadFlag, "payload", "", "Path to a media payload file")
	cmd.Flags().StringVar(&actionFlag, "action", string(capture.ActionSave), "Queue action (save, analyze, process)")
	cmd.Flags().BoolVar(&processNow, "now", false, "Drain the queue immediately after enqueueing")

	return cmd
}
