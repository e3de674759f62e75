package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudo-init-do/tgwork/internal/models"
)

func newRegisterCmd(app *App) *cobra.Command {
	var email, name, password, mode string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			at := models.AccountType(mode)
			if !at.Valid() {
				return fmt.Errorf("mode must be freelancer or client")
			}
			app.Session.SetLoading(true)
			defer app.Session.SetLoading(false)

			res, err := app.Client.SaveUser(cmd.Context(), &models.User{
				Email:       email,
				Password:    password,
				Name:        name,
				AccountType: at,
			})
			if err != nil {
				return err
			}
			if err := app.remember(&res.User, res.Token); err != nil {
				return err
			}
			app.printf("Welcome, %s! You are registered as a %s.\n", res.User.Name, res.User.AccountType)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password (min 6 characters)")
	cmd.Flags().StringVar(&mode, "mode", string(models.Freelancer), "freelancer or client")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Session.SetLoading(true)
			defer app.Session.SetLoading(false)

			res, err := app.Client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := app.remember(&res.User, res.Token); err != nil {
				return err
			}
			app.printf("Signed in as %s (%s).\n", res.User.Name, res.User.AccountType)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Session.Clear()
			if err := app.Session.Save(app.SessionPath); err != nil {
				return err
			}
			app.printf("Signed out.\n")
			return nil
		},
	}
}

func newHomeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show who you are signed in as",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(); err != nil {
				return err
			}
			u, err := app.Client.Me(cmd.Context())
			if err != nil {
				return app.explain(err)
			}
			if err := app.remember(u, ""); err != nil {
				return err
			}
			app.title("TgWork")
			app.printf("Name:   %s\n", u.Name)
			app.printf("Email:  %s\n", u.Email)
			app.printf("Mode:   %s\n", u.AccountType)
			app.printf("Rating: %.1f (%d reviews)\n", u.Rating, u.Reviews)
			return nil
		},
	}
}

func newModeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "mode <freelancer|client>",
		Short:     "Switch between freelancer and client mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.Freelancer), string(models.Client)},
		RunE: func(cmd *cobra.Command, args []string) error {
			at := models.AccountType(args[0])
			if !at.Valid() {
				return fmt.Errorf("mode must be freelancer or client")
			}
			if _, err := app.me(); err != nil {
				return err
			}
			u, err := app.Client.Me(cmd.Context())
			if err != nil {
				return app.explain(err)
			}
			u.AccountType = at
			res, err := app.Client.SaveUser(cmd.Context(), u)
			if err != nil {
				return app.explain(err)
			}
			if err := app.remember(&res.User, res.Token); err != nil {
				return err
			}
			app.printf("You are now in %s mode.\n", res.User.AccountType)
			return nil
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [email]",
		Short: "Show a profile, yours by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var email string
			if len(args) == 1 {
				email = args[0]
			} else {
				me, err := app.me()
				if err != nil {
					return err
				}
				email = me
			}
			p, err := app.Client.Profile(cmd.Context(), email)
			if err != nil {
				return err
			}
			app.title(p.Name)
			app.printf("%s\n", mutedStyle.Render(p.Email))
			app.printf("Mode:     %s\n", p.AccountType)
			app.printf("Rating:   %.1f\n", p.Rating)
			app.printf("Reviews:  %d\n", p.Reviews)
			app.printf("Services: %d\n", p.Services)
			app.printf("Orders:   %d\n", p.Orders)
			return nil
		},
	}
}

func newReviewCmd(app *App) *cobra.Command {
	var rating int
	var comment string
	cmd := &cobra.Command{
		Use:   "review <email>",
		Short: "Rate another user from 1 to 5",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.me(); err != nil {
				return err
			}
			res, err := app.Client.Review(cmd.Context(), args[0], rating, comment)
			if err != nil {
				return app.explain(err)
			}
			app.printf("%s now has a %.1f rating from %d reviews.\n", res.Email, res.Rating, res.Reviews)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newForgotCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot <email>",
		Short: "Email yourself a password reset link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Client.RequestPasswordReset(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.printf("If %s has an account, a reset link is on its way.\n", args[0])
			return nil
		},
	}
}

func newResetPasswordCmd(app *App) *cobra.Command {
	var token, password string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from a reset link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Client.ResetPassword(cmd.Context(), token, password); err != nil {
				return err
			}
			app.printf("Password updated. Sign in with login.\n")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token from the reset link")
	cmd.Flags().StringVar(&password, "password", "", "new password (min 6 characters)")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
