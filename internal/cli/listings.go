package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sudo-init-do/tgwork/internal/marketplace"
	"github.com/sudo-init-do/tgwork/internal/models"
)

type itemFlags struct {
	title, description, category string
	amount                       float64
}

func (f *itemFlags) bind(cmd *cobra.Command, amountName string) {
	cmd.Flags().StringVar(&f.title, "title", "", "title")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.category, "category", defaultCategory, fmt.Sprintf("one of %v", models.Categories))
	cmd.Flags().Float64Var(&f.amount, amountName, 0, amountName)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired(amountName)
}

// loggedIn wraps run so it only executes with a saved session.
func loggedIn(app *App, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if _, err := app.me(); err != nil {
			return err
		}
		return app.explain(run(cmd, args))
	}
}

func newServicesCmd(app *App) *cobra.Command {
	listServices := func(cmd *cobra.Command, args []string) error {
		services, err := app.Client.MyServices(cmd.Context())
		if err != nil {
			return err
		}
		app.title("My services")
		if len(services) == 0 {
			app.printf("%s\n", mutedStyle.Render("You have no services yet."))
			return nil
		}
		tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPRICE\tSTATUS")
		for _, s := range services {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", s.ID, s.Title, s.Category, s.Price, s.Status)
		}
		return tw.Flush()
	}

	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage your services",
		RunE:  loggedIn(app, listServices),
	}

	list := &cobra.Command{Use: "list", Short: "List your services", RunE: loggedIn(app, listServices)}

	var add itemFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "List a new service",
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			s, err := app.Client.CreateService(cmd.Context(), marketplace.CreateServiceRequest{
				Title: add.title, Description: add.description, Category: add.category, Price: add.amount,
			})
			if err != nil {
				return err
			}
			app.printf("Service %s created.\n", s.ID)
			return nil
		}),
	}
	add.bind(addCmd, "price")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your services",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			if err := app.Client.DeleteService(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.printf("Service %s deleted.\n", args[0])
			return nil
		}),
	}

	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a service completed",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			s, err := app.Client.UpdateServiceStatus(cmd.Context(), args[0], models.ServiceCompleted)
			if err != nil {
				return err
			}
			app.printf("Service %s is now %s.\n", s.ID, s.Status)
			return nil
		}),
	}

	cmd.AddCommand(list, addCmd, del, complete)
	return cmd
}

func newOrdersCmd(app *App) *cobra.Command {
	listOrders := func(cmd *cobra.Command, args []string) error {
		orders, err := app.Client.MyOrders(cmd.Context())
		if err != nil {
			return err
		}
		app.title("My orders")
		if len(orders) == 0 {
			app.printf("%s\n", mutedStyle.Render("You have no orders yet."))
			return nil
		}
		tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tBUDGET\tSTATUS\tBIDS")
		for _, o := range orders {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%d\n", o.ID, o.Title, o.Category, o.Budget, o.Status, len(o.Bids))
		}
		return tw.Flush()
	}

	setStatus := func(use, short string, status models.OrderStatus) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
				o, err := app.Client.UpdateOrderStatus(cmd.Context(), args[0], status)
				if err != nil {
					return err
				}
				app.printf("Order %s is now %s.\n", o.ID, o.Status)
				return nil
			}),
		}
	}

	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage your orders",
		RunE:  loggedIn(app, listOrders),
	}

	list := &cobra.Command{Use: "list", Short: "List your orders", RunE: loggedIn(app, listOrders)}

	var add itemFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Post a new order",
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			o, err := app.Client.CreateOrder(cmd.Context(), marketplace.CreateOrderRequest{
				Title: add.title, Description: add.description, Category: add.category, Budget: add.amount,
			})
			if err != nil {
				return err
			}
			app.printf("Order %s created.\n", o.ID)
			return nil
		}),
	}
	add.bind(addCmd, "budget")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your orders",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			if err := app.Client.DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.printf("Order %s deleted.\n", args[0])
			return nil
		}),
	}

	bids := &cobra.Command{
		Use:   "bids <id>",
		Short: "Show bids on one of your orders",
		Args:  cobra.ExactArgs(1),
		RunE: loggedIn(app, func(cmd *cobra.Command, args []string) error {
			list, err := app.Client.Bids(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			app.title("Bids on " + args[0])
			if len(list) == 0 {
				app.printf("%s\n", mutedStyle.Render("No bids yet."))
				return nil
			}
			tw := tabwriter.NewWriter(app.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FREELANCER\tWHEN\tMESSAGE")
			for _, b := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.FreelancerEmail, b.CreatedAt.Format("2006-01-02 15:04"), b.Message)
			}
			return tw.Flush()
		}),
	}

	cmd.AddCommand(
		list,
		addCmd,
		del,
		setStatus("start", "Move an open order to in progress", models.OrderInProgress),
		setStatus("complete", "Mark an in-progress order completed", models.OrderCompleted),
		bids,
	)
	return cmd
}
