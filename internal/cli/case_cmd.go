package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/service"
)

func newCaseCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Track the milestones of a real case",
	}

	cmd.AddCommand(
		newCaseShowCmd(app),
		newCaseMilestoneCmd(app),
		newCasePortCmd(app),
		newCaseImportCmd(app),
		newCaseResetCmd(app),
	)

	return cmd
}

func newCaseShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the tracked case",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Cases.Active(cmd.Context())
			if errors.Is(err, service.ErrNoActiveCase) {
				fmt.Fprintln(cmd.OutOrStdout(), "No case tracked yet. Start one with `greenpath case milestone` or `greenpath case import`.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCase(c, app.now()))
			return nil
		},
	}
}

func newCaseMilestoneCmd(app *App) *cobra.Command {
	var in service.MilestoneInput

	cmd := &cobra.Command{
		Use:   "milestone KEY",
		Short: "Record a milestone: " + milestoneKeyList(),
		Long: "Records one milestone on the tracked case, creating the case if needed.\n" +
			"Dates are kept as entered; a date that cannot be read is ignored by projections.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Key = args[0]
			c, err := app.Cases.SetMilestone(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCase(c, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Status, "status", "", "not_started, filed, approved or denied (inferred from dates when omitted)")
	cmd.Flags().StringVar(&in.FiledOn, "filed", "", "Filing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.ApprovedOn, "approved", "", "Approval date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Receipt, "receipt", "", "Receipt number, e.g. IOE0912345678")
	cmd.Flags().StringVar(&in.PriorityDate, "pd", "", "Priority date printed on the I-140 approval notice")

	return cmd
}

func newCasePortCmd(app *App) *cobra.Command {
	var in service.PortInput
	var remove string
	from := &categoryFlag{}

	cmd := &cobra.Command{
		Use:   "port",
		Short: "Add or remove a priority date carried over from an earlier petition",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if remove != "" {
				if err := app.Cases.RemovePort(ctx, remove); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed ported date %s\n", remove)
				return nil
			}
			if in.PriorityDate == "" {
				return errors.New("--pd is required")
			}
			in.FromCategory = string(from.value)
			c, err := app.Cases.AddPort(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCase(c, app.now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.PriorityDate, "pd", "", "Priority date being ported (YYYY-MM-DD)")
	cmd.Flags().Var(from, "from", "Category of the earlier petition")
	cmd.Flags().StringVar(&in.I140ApprovedOn, "i140-approved", "", "Approval date of the earlier I-140")
	cmd.Flags().StringVar(&in.WithdrawnOn, "withdrawn", "", "Withdrawal date of the earlier I-140, if any")
	cmd.Flags().StringVar(&remove, "remove", "", "Remove the ported date with this ID")
	cmd.MarkFlagsMutuallyExclusive("pd", "remove")

	return cmd
}

func newCaseImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the tracked case with a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Cases.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatImportResult(res))
			return nil
		},
	}
}

func newCaseResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the tracked case",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return errors.New("refusing to delete the case without --yes")
				}
				confirmed := false
				if err := wizardConfirm("Delete the tracked case and all its milestones?", &confirmed).RunWithContext(cmd.Context()); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			if err := app.Cases.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tracked case deleted.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")

	return cmd
}

// milestoneKeyList is the help text list of accepted keys.
func milestoneKeyList() string {
	keys := make([]string, len(domain.MilestoneKeys))
	for i, k := range domain.MilestoneKeys {
		keys[i] = string(k)
	}
	return strings.Join(keys, ", ")
}
