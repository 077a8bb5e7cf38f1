package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/livedata"
)

func newSnapshotCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or refresh processing times and visa bulletin data",
	}

	cmd.AddCommand(
		newSnapshotShowCmd(app),
		newSnapshotRefreshCmd(app),
	)

	return cmd
}

func newSnapshotShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the snapshot projections use",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Snapshots.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSnapshot(res))
			return nil
		},
	}
}

func newSnapshotRefreshCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch live data when the cache has expired",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			stop := formatter.StartSpinner(out, "Fetching live data...", app.interactive())

			var (
				res livedata.Result
				err error
			)
			if force {
				res, err = app.Snapshots.Refresh(cmd.Context())
			} else {
				res, err = app.Snapshots.Current(cmd.Context())
			}
			stop()

			switch {
			case errors.Is(err, livedata.ErrNotConfigured):
				fmt.Fprintln(out, formatter.Dim("No live data endpoint is configured; built-in defaults are used."))
			case err != nil:
				fmt.Fprintln(out, formatter.Warn(err.Error()))
			}
			fmt.Fprintln(out, formatter.FormatSnapshot(res))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Bypass every cache and fetch now")

	return cmd
}
