package cli

import (
	"context"
	"errors"
	"io"

	"github.com/dmitrijs2005/mediaxfer/internal/client/config"
	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/dmitrijs2005/mediaxfer/internal/logging"
	"github.com/spf13/cobra"
)

// Execute runs the command tree for args. The App created by the run, if
// any, is closed before returning even when the command failed.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	var app *App
	root := newRootCommand(&app, in, out, errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if app != nil {
		err = errors.Join(err, app.Close(ctx))
	}
	return err
}

func newRootCommand(app **App, in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           common.AppName,
		Short:         "Send files to a media processing backend and collect the results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[skipSetup] != "" {
				return nil
			}
			cfg, err := config.Load(config.SourcesFromFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			log, err := logging.New(errOut, cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			*app = NewApp(cfg, log, in, out, errOut)
			return nil
		},
	}

	config.RegisterFlags(root.PersistentFlags())
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	current := func() *App { return *app }
	root.AddCommand(
		newLoginCommand(current),
		newLogoutCommand(current),
		newWhoamiCommand(current),
		newProcessCommand(current),
		newShareCommand(current),
		newVersionCommand(),
	)
	return root
}

// skipSetup marks commands that run without configuration.
const skipSetup = "mediaxfer/skip-setup"
