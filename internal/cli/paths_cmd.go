package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/composer"
	"github.com/alexanderramin/greenpath/internal/service"
)

func newPathsCmd(app *App) *cobra.Command {
	var premium, audit, browse, ignoreCase bool
	var pathID string

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Compose every admissible green card path for the profile",
		Long: "Composes each admissible path with processing times and backlog projections.\n" +
			"When a case is tracked, times are remaining from today.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if browse && !app.interactive() {
				return fmt.Errorf("--browse: %w", errNotInteractive)
			}

			proj, err := app.Projections.Project(cmd.Context(), service.ProjectionRequest{
				IgnoreCase: ignoreCase,
				PathID:     pathID,
				Options: composer.Options{
					Premium:         premium,
					AssumePERMAudit: audit,
				},
			})
			if err != nil {
				return err
			}

			now := app.now()
			out := cmd.OutOrStdout()
			switch {
			case browse:
				return runBrowser(proj, now)
			case pathID != "":
				fmt.Fprintln(out, formatter.FormatPath(proj.Paths[0], now))
			default:
				fmt.Fprintln(out, formatter.FormatProjection(proj, now))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&premium, "premium", false, "Use premium processing where offered")
	cmd.Flags().BoolVar(&audit, "audit", false, "Assume the PERM application is audited")
	cmd.Flags().BoolVar(&browse, "browse", false, "Browse paths in a scrollable view")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "Project from scratch, ignoring the tracked case")
	cmd.Flags().StringVar(&pathID, "path", "", "Show one path in detail, e.g. perm-eb2")

	return cmd
}
