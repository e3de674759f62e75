package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/server"
	"github.com/sudo-init-do/tgwork/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	e := server.New(server.Deps{
		Store:         store.NewMemory(),
		Tokens:        auth.NewTokens("cli-secret", time.Hour),
		Log:           zap.NewNop(),
		AuthRateLimit: 1000,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	app *App
	out *bytes.Buffer
}

func newHarness(t *testing.T, srv *httptest.Server, sessionPath string) *harness {
	t.Helper()
	app, err := NewApp(srv.URL, sessionPath)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	app.Out = out
	return &harness{app: app, out: out}
}

func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	root := NewRootCommand(h.app)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return h.out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(args...)
	require.NoError(t, err, "tgwork %v", args)
	return out
}

var createdID = regexp.MustCompile(`(?:Order|Service) (\S+) created`)

func idFrom(t *testing.T, out string) string {
	t.Helper()
	m := createdID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	return m[1]
}

func TestRegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t)
	path := filepath.Join(t.TempDir(), "session.yaml")
	h := newHarness(t, srv, path)

	out := h.mustRun(t, "register", "--email", "ann@example.com", "--name", "Ann", "--password", "secret1", "--mode", "client")
	assert.Contains(t, out, "Welcome, Ann!")
	assert.Contains(t, out, "client")

	// the session survives into a fresh process
	again := newHarness(t, srv, path)
	require.True(t, again.app.Session.LoggedIn())
	out = again.mustRun(t, "home")
	assert.Contains(t, out, "Email:  ann@example.com")
	assert.Contains(t, out, "Mode:   client")
	assert.Contains(t, out, "Rating: 5.0 (0 reviews)")

	out = again.mustRun(t, "logout")
	assert.Contains(t, out, "Signed out.")
	_, err := again.run("home")
	assert.ErrorIs(t, err, errNotLoggedIn)

	_, err = again.run("login", "--email", "ann@example.com", "--password", "wrong1")
	require.Error(t, err)
	assert.Equal(t, "invalid credentials", err.Error())

	out = again.mustRun(t, "login", "--email", "ann@example.com", "--password", "secret1")
	assert.Contains(t, out, "Signed in as Ann (client)")
}

func TestRegister_ServerErrorShownInline(t *testing.T) {
	srv := newTestServer(t)
	h := newHarness(t, srv, filepath.Join(t.TempDir(), "s.yaml"))

	_, err := h.run("register", "--email", "ann@example.com", "--name", "Ann", "--password", "123")
	require.Error(t, err)
	assert.Equal(t, "password must be at least 6 characters", err.Error())
	assert.False(t, h.app.Session.LoggedIn())

	_, err = h.run("register", "--email", "ann@example.com", "--name", "Ann", "--password", "secret1", "--mode", "boss")
	assert.Error(t, err)
}

func TestMarketplaceSession(t *testing.T) {
	srv := newTestServer(t)
	client := newHarness(t, srv, filepath.Join(t.TempDir(), "client.yaml"))
	free := newHarness(t, srv, filepath.Join(t.TempDir(), "free.yaml"))

	client.mustRun(t, "register", "--email", "cleo@example.com", "--name", "Cleo", "--password", "secret1", "--mode", "client")
	free.mustRun(t, "register", "--email", "fran@example.com", "--name", "Fran", "--password", "secret1")

	orderID := idFrom(t, client.mustRun(t, "orders", "add", "--title", "Fix CSS", "--budget", "50"))
	serviceID := idFrom(t, free.mustRun(t, "services", "add", "--title", "Logo design", "--category", "design", "--price", "30"))

	out := free.mustRun(t, "market")
	assert.Contains(t, out, "Marketplace: services in web")
	assert.Contains(t, out, "Nothing here yet.")

	out = free.mustRun(t, "market", "--kind", "orders")
	assert.Contains(t, out, "Marketplace: orders in web")
	assert.Contains(t, out, "Fix CSS")

	out = client.mustRun(t, "market", "--all", "--kind", "services")
	assert.Contains(t, out, "services in all categories")
	assert.Contains(t, out, "Logo design")

	out = client.mustRun(t, "market")
	assert.Contains(t, out, "Marketplace: orders in web")
	assert.Contains(t, out, "Nothing here yet.")

	out = free.mustRun(t, "bid", orderID, "--message", "I can start today")
	assert.Contains(t, out, "placed on order "+orderID)

	_, err := free.run("bid", orderID, "--message", "again")
	require.Error(t, err)
	assert.Equal(t, "you already bid on this order", err.Error())

	out = client.mustRun(t, "orders", "bids", orderID)
	assert.Contains(t, out, "fran@example.com")
	assert.Contains(t, out, "I can start today")

	out = client.mustRun(t, "orders", "start", orderID)
	assert.Contains(t, out, "is now in_progress")
	out = client.mustRun(t, "orders")
	assert.Contains(t, out, "in_progress")

	out = free.mustRun(t, "services", "complete", serviceID)
	assert.Contains(t, out, "is now completed")

	out = client.mustRun(t, "review", "fran@example.com", "--rating", "4")
	assert.Contains(t, out, "4.0 rating from 1 reviews")

	out = free.mustRun(t, "profile")
	assert.Contains(t, out, "Rating:   4.0")
	assert.Contains(t, out, "Services: 1")

	// completed work stays on the record
	_, err = free.run("services", "delete", serviceID)
	require.Error(t, err)
	assert.Equal(t, "invalid status transition", err.Error())
	out = free.mustRun(t, "services", "list")
	assert.Contains(t, out, "Logo design")

	client.mustRun(t, "orders", "delete", orderID)
	out = client.mustRun(t, "orders", "list")
	assert.Contains(t, out, "You have no orders yet.")
}

func TestModeSwitch(t *testing.T) {
	srv := newTestServer(t)
	cleo := newHarness(t, srv, filepath.Join(t.TempDir(), "cleo.yaml"))
	fran := newHarness(t, srv, filepath.Join(t.TempDir(), "fran.yaml"))

	cleo.mustRun(t, "register", "--email", "cleo@example.com", "--name", "Cleo", "--password", "secret1", "--mode", "client")
	fran.mustRun(t, "register", "--email", "fran@example.com", "--name", "Fran", "--password", "secret1")
	orderID := idFrom(t, cleo.mustRun(t, "orders", "add", "--title", "Write copy", "--category", "writing", "--budget", "20"))

	out := fran.mustRun(t, "mode", "client")
	assert.Contains(t, out, "You are now in client mode.")

	// the refreshed token carries the new mode
	_, err := fran.run("bid", orderID, "--message", "hi")
	require.Error(t, err)
	assert.Equal(t, "access denied", err.Error())

	fran.mustRun(t, "mode", "freelancer")
	fran.mustRun(t, "bid", orderID, "--message", "hi")

	_, err = fran.run("mode", "boss")
	assert.Error(t, err)
}

func TestCommandsRequireLogin(t *testing.T) {
	srv := newTestServer(t)
	h := newHarness(t, srv, filepath.Join(t.TempDir(), "s.yaml"))
	for _, args := range [][]string{
		{"home"},
		{"market"},
		{"services"},
		{"orders", "list"},
		{"bid", "x", "--message", "m"},
		{"review", "a@example.com", "--rating", "3"},
		{"profile"},
	} {
		_, err := h.run(args...)
		assert.ErrorIs(t, err, errNotLoggedIn, "%v", args)
	}
}

func TestChat(t *testing.T) {
	srv := newTestServer(t)
	cleo := newHarness(t, srv, filepath.Join(t.TempDir(), "cleo.yaml"))
	fran := newHarness(t, srv, filepath.Join(t.TempDir(), "fran.yaml"))
	otto := newHarness(t, srv, filepath.Join(t.TempDir(), "otto.yaml"))

	cleo.mustRun(t, "register", "--email", "cleo@example.com", "--name", "Cleo", "--password", "secret1", "--mode", "client")
	fran.mustRun(t, "register", "--email", "fran@example.com", "--name", "Fran", "--password", "secret1")
	otto.mustRun(t, "register", "--email", "otto@example.com", "--name", "Otto", "--password", "secret1")
	orderID := idFrom(t, cleo.mustRun(t, "orders", "add", "--title", "Fix CSS", "--budget", "50"))

	out := cleo.mustRun(t, "chat", orderID)
	assert.Contains(t, out, "No messages yet.")

	fran.mustRun(t, "bid", orderID, "--message", "I can start today")
	out = fran.mustRun(t, "chat", orderID, "--send", "what browser?")
	assert.Contains(t, out, "fran@example.com: what browser?")

	_, err := cleo.run("chat", orderID, "--send", "safari")
	require.Error(t, err)

	out = cleo.mustRun(t, "chat", orderID, "--send", "safari", "--to", "fran@example.com")
	assert.Contains(t, out, "fran@example.com: what browser?")
	assert.Contains(t, out, "cleo@example.com: safari")

	_, err = otto.run("chat", orderID)
	require.Error(t, err)
	assert.Equal(t, "not a participant in this order", err.Error())
}

type cliOutbox struct {
	link string
}

func (o *cliOutbox) SendPasswordReset(_ context.Context, _, _, resetURL string, _ time.Duration) error {
	o.link = resetURL
	return nil
}

func TestForgotAndResetPassword(t *testing.T) {
	outbox := &cliOutbox{}
	e := server.New(server.Deps{
		Store:         store.NewMemory(),
		Tokens:        auth.NewTokens("cli-secret", time.Hour),
		Log:           zap.NewNop(),
		AuthRateLimit: 1000,
		Resets:        outbox,
		AppURL:        "https://app.test",
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	h := newHarness(t, srv, filepath.Join(t.TempDir(), "s.yaml"))

	h.mustRun(t, "register", "--email", "ann@example.com", "--name", "Ann", "--password", "secret1")
	out := h.mustRun(t, "forgot", "ann@example.com")
	assert.Contains(t, out, "a reset link is on its way")

	link, err := url.Parse(outbox.link)
	require.NoError(t, err)
	out = h.mustRun(t, "reset-password", "--token", link.Query().Get("token"), "--password", "changed1")
	assert.Contains(t, out, "Password updated.")

	out = h.mustRun(t, "login", "--email", "ann@example.com", "--password", "changed1")
	assert.Contains(t, out, "Signed in as Ann")

	_, err = h.run("reset-password", "--token", link.Query().Get("token"), "--password", "again12")
	require.Error(t, err)
	assert.Equal(t, "invalid or expired token", err.Error())
}
