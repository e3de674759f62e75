package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sudo-init-do/tgwork/internal/marketplace"
	"github.com/sudo-init-do/tgwork/internal/models"
)

const defaultCategory = "web"

func newMarketCmd(app *App) *cobra.Command {
	var category, kind string
	var all bool
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Browse other users' services or orders",
		Long: `Browse the marketplace. Freelancers see services and clients see
orders unless --kind says otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(); err != nil {
				return err
			}
			if all {
				category = ""
			}
			feed, err := app.Client.Feed(cmd.Context(), marketplace.Kind(kind), category)
			if err != nil {
				return app.explain(err)
			}
			label := feed.Category
			if label == "" {
				label = "all categories"
			}
			app.title(fmt.Sprintf("Marketplace: %s in %s", feed.Kind, label))
			if len(feed.Items) == 0 {
				app.printf("%s\n", mutedStyle.Render("Nothing here yet."))
				return nil
			}
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tAUTHOR\tSTATUS")
			for _, l := range feed.Items {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", l.ID, l.Title, l.Price, l.AuthorEmail, l.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", defaultCategory, fmt.Sprintf("one of %v", models.Categories))
	cmd.Flags().BoolVar(&all, "all", false, "show every category")
	cmd.Flags().StringVar(&kind, "kind", "", "services or orders")
	return cmd
}

func newBidCmd(app *App) *cobra.Command {
	var message string
	cmd := &cobra.Command{
		Use:   "bid <order-id>",
		Short: "Bid on an open order (freelancer mode)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(); err != nil {
				return err
			}
			bid, err := app.Client.PlaceBid(cmd.Context(), args[0], message)
			if err != nil {
				return app.explain(err)
			}
			app.printf("Bid %s placed on order %s.\n", bid.ID, bid.OrderID)
			return nil
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "your proposal")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
