package cli

import (
	"errors"

	"github.com/anonto42/faith-connect/functions/internal/models"
	"github.com/anonto42/faith-connect/functions/internal/services"
	"github.com/spf13/cobra"
)

// operatorUID identifies broadcasts sent from the command line
const operatorUID = "pushctl"

func newDispatchCmd(boot bootFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <notification-id>",
		Short: "Deliver a stored push notification request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Dispatcher.Dispatch(cmd.Context(), args[0], nil)
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.Success && !result.Skipped {
				return errors.New(result.Error)
			}
			return nil
		},
	}
}

func newSweepCmd(boot bootFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete push notification requests past retention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.Sweeper.Result(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if result.Error != "" {
				return errors.New(result.Error)
			}
			return nil
		},
	}
}

func newBroadcastCmd(boot bootFunc) *cobra.Command {
	var (
		req     models.TopicNotificationRequest
		msgType string
	)

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a notification to every subscriber of a topic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := boot(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			req.Type = models.NotificationType(msgType)
			result, err := a.Broadcaster.SendTopicNotification(cmd.Context(), &services.Caller{UID: operatorUID}, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&req.Topic, "topic", "", "topic to publish to")
	cmd.Flags().StringVar(&req.Title, "title", "", "notification title")
	cmd.Flags().StringVar(&req.Body, "body", "", "notification body (defaults to the announcement text)")
	cmd.Flags().StringVar(&msgType, "type", "", "data type tag (defaults to announcement)")
	return cmd
}
