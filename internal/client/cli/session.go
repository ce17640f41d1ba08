package cli

import (
	"bufio"
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/client/session"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLoginCommand(app func() *App) *cobra.Command {
	var token, refresh string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the access token sent with processing requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().Login(cmd.Context(), token, refresh)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "access token; prompted for when omitted")
	cmd.Flags().StringVar(&refresh, "refresh-token", "", "refresh token to keep with the session")
	return cmd
}

func newLogoutCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().Logout(cmd.Context())
		},
	}
}

func newWhoamiCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app().Whoami(cmd.Context())
		},
	}
}

// Login stores token as the current session. An empty token is read from
// the terminal without echo, or as a line from a non-interactive stdin.
func (a *App) Login(ctx context.Context, token, refresh string) error {
	if token == "" {
		var err error
		if token, err = a.readToken(); err != nil {
			return fmt.Errorf("read token: %w", err)
		}
	}

	sess, err := session.FromToken(token, refresh)
	if err != nil {
		return err
	}

	store, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	if err := store.SaveSession(ctx, sess); err != nil {
		return err
	}

	if sess.Expired(time.Now()) {
		a.log.Warn(ctx, "stored token is already expired", "expires_at", sess.ExpiresAt)
	}
	if sess.UserID != "" {
		fmt.Fprintf(a.out, "Signed in as %s\n", sess.UserID)
	} else {
		fmt.Fprintln(a.out, "Signed in")
	}
	return nil
}

func (a *App) readToken() (string, error) {
	if stdinIsTerminal(a.in) {
		return GetSecret(a.errOut, "Access token: ")
	}
	return GetSimpleText(bufio.NewReader(a.in), "", a.errOut)
}

func (a *App) Logout(ctx context.Context) error {
	store, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	store, err := a.Sessions(ctx)
	if err != nil {
		return err
	}
	sess, err := store.GetSession(ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return common.ErrNotSignedIn
	}

	user := sess.UserID
	if user == "" {
		user = "(opaque token)"
	}
	fmt.Fprintf(a.out, "User:    %s\n", user)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Expires: %s (%s)\n", sess.ExpiresAt.Format(time.RFC3339), humanize.Time(sess.ExpiresAt))
	}
	fmt.Fprintf(a.out, "Saved:   %s\n", humanize.Time(sess.UpdatedAt))
	return nil
}
