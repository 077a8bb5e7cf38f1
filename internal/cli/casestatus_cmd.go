package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/casestatus"
	"github.com/alexanderramin/greenpath/internal/cli/formatter"
)

func newCaseStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "case-status [RECEIPT]",
		Short: "Look up agency case status",
		Long:  "Looks up one receipt, or every receipt recorded on the tracked case when none is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			stop := formatter.StartSpinner(out, "Checking case status...", app.interactive())

			if len(args) == 0 {
				statuses, err := app.CaseStatus.CheckCase(ctx)
				stop()
				if err != nil {
					return err
				}
				fmt.Fprint(out, formatter.FormatReceiptStatuses(statuses))
				return nil
			}

			res, err := app.CaseStatus.Lookup(ctx, args[0])
			stop()
			var lookup *casestatus.LookupError
			if errors.As(err, &lookup) {
				fmt.Fprint(out, formatter.FormatLookupFailure(lookup))
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatter.FormatCaseStatus(res))
			return nil
		},
	}
}
