// Package cli is the tgwork terminal front end.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sudo-init-do/tgwork/internal/client"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

var errNotLoggedIn = errors.New("not logged in: run `tgwork login` or `tgwork register`")

// App is the state shared by every command.
type App struct {
	Client      *client.Client
	Session     *session.Session
	SessionPath string
	Out         io.Writer
}

// NewApp loads the saved session and points a client at apiURL.
func NewApp(apiURL, sessionPath string) (*App, error) {
	if sessionPath == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		sessionPath = p
	}
	sess, err := session.Load(sessionPath)
	if err != nil {
		return nil, err
	}
	return &App{
		Client:      client.New(apiURL, sess, nil),
		Session:     sess,
		SessionPath: sessionPath,
		Out:         os.Stdout,
	}, nil
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Out, format, args...)
}

func (a *App) title(s string) {
	fmt.Fprintln(a.Out, titleStyle.Render(s))
}

// remember stores u and token in the session and on disk.
func (a *App) remember(u *models.User, token string) error {
	a.Session.Set(u, token)
	return a.Session.Save(a.SessionPath)
}

// me returns the signed-in user's email or errNotLoggedIn.
func (a *App) me() (string, error) {
	u := a.Session.Current()
	if u == nil || a.Session.Token() == "" {
		return "", errNotLoggedIn
	}
	return u.Email, nil
}

// explain turns an expired session into a hint to log in again.
func (a *App) explain(err error) error {
	if client.IsUnauthorized(err) {
		return fmt.Errorf("%v: run `tgwork login` again", err)
	}
	return err
}

// NewRootCommand builds the whole command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "tgwork",
		Short:         "TgWork freelance marketplace",
		Long:          `Browse the TgWork marketplace, list services and post orders from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(app.Out)

	root.AddCommand(
		newRegisterCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newForgotCmd(app),
		newResetPasswordCmd(app),
		newHomeCmd(app),
		newModeCmd(app),
		newProfileCmd(app),
		newMarketCmd(app),
		newServicesCmd(app),
		newOrdersCmd(app),
		newBidCmd(app),
		newChatCmd(app),
		newReviewCmd(app),
	)
	return root
}
