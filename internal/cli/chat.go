package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChatCmd(app *App) *cobra.Command {
	var send, to, with string
	cmd := &cobra.Command{
		Use:   "chat <order-id>",
		Short: "Read or write an order chat",
		Long: `Show the chat on an order, sending a message first when --send is set.
Order owners pick the bidder with --to when sending and may narrow the
view with --with. Messages addressed to you are marked read once shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := app.me()
			if err != nil {
				return err
			}
			orderID := args[0]
			if send != "" {
				if _, err := app.Client.SendMessage(cmd.Context(), orderID, to, send); err != nil {
					return app.explain(err)
				}
			}
			msgs, err := app.Client.Messages(cmd.Context(), orderID, with)
			if err != nil {
				return app.explain(err)
			}
			app.title(fmt.Sprintf("Chat on order %s", orderID))
			if len(msgs) == 0 {
				app.printf("%s\n", mutedStyle.Render("No messages yet."))
				return nil
			}
			for _, m := range msgs {
				stamp := m.CreatedAt.Local().Format("Jan 2 15:04")
				if m.Edited {
					stamp += " (edited)"
				}
				app.printf("%s %s: %s\n", mutedStyle.Render(stamp), m.AuthorEmail, m.Text)
				if m.AuthorEmail != me && m.ReadAt == nil && !m.Deleted {
					if err := app.Client.MarkMessageRead(cmd.Context(), orderID, m.ID); err != nil {
						return app.explain(err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&send, "send", "", "message to send before showing the chat")
	cmd.Flags().StringVar(&to, "to", "", "bidder to write to (order owners)")
	cmd.Flags().StringVar(&with, "with", "", "only show the thread with this bidder")
	return cmd
}
