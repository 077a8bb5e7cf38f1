package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/domain"
)

func newVelocityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "velocity CATEGORY [COUNTRY]",
		Short: "Estimate how fast a visa bulletin backlog moves",
		Long:  "COUNTRY defaults to the profile's country of birth.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cat, ok := domain.ParseCategory(args[0])
			if !ok {
				return fmt.Errorf("unknown category %q", args[0])
			}

			var ch domain.Chargeability
			if len(args) == 2 {
				ch = domain.Profile{CountryOfBirth: args[1]}.Chargeability()
			} else {
				p, err := app.Profiles.Get(ctx)
				if err != nil {
					return err
				}
				ch = p.Chargeability()
			}

			v, err := app.Projections.Velocity(ctx, cat, ch)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatVelocity(v))
			return nil
		},
	}
}
