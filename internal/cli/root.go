package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/service"
)

// App holds the services and terminal hooks used by CLI commands.
type App struct {
	Profiles    service.ProfileService
	Cases       service.CaseService
	Projections service.ProjectionService
	Snapshots   service.SnapshotService
	CaseStatus  service.CaseStatusService

	// Serve runs the HTTP API until ctx is cancelled. Nil disables `serve`.
	Serve       func(ctx context.Context, addr string) error
	DefaultAddr string

	// IsInteractive reports whether stdin and stdout are terminals. Nil
	// means never; forms and the path browser then refuse to start.
	IsInteractive func() bool
	Now           func() time.Time
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}

// NewRootCmd creates the top-level "greenpath" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "greenpath",
		Short:         "Green card path planner and backlog projector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newProfileCmd(app),
		newPathsCmd(app),
		newCaseCmd(app),
		newVelocityCmd(app),
		newSnapshotCmd(app),
		newCaseStatusCmd(app),
		newServeCmd(app),
	)

	return root
}
