package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/greenpath/internal/cli/formatter"
	"github.com/alexanderramin/greenpath/internal/domain"
)

var errNotInteractive = errors.New("this command needs an interactive terminal")

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change the applicant profile",
	}

	cmd.AddCommand(
		newProfileShowCmd(app),
		newProfileSetCmd(app),
		newProfileEditCmd(app),
	)

	return cmd
}

func newProfileShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Profiles.Get(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProfile(p))
			return nil
		},
	}
}

func newProfileSetCmd(app *App) *cobra.Command {
	var (
		country, pd                          string
		stem, canMex                         bool
		extraordinary, researcher, executive bool
		married, investor                    bool
		pdApproved, clearPD                  bool
	)
	status := newEnumFlag("status", domain.ValidStatuses)
	education := newEnumFlag("education", domain.ValidEducations)
	experience := newEnumFlag("experience", domain.ValidExperiences)
	pdCategory := &categoryFlag{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change individual profile fields",
		Long:  "Only flags given on the command line are changed; everything else keeps its stored value.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := app.Profiles.Get(ctx)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("status") {
				p.Status = domain.ImmigrationStatus(status.value)
			}
			if flags.Changed("education") {
				p.Education = domain.Education(education.value)
			}
			if flags.Changed("experience") {
				p.Experience = domain.Experience(experience.value)
			}
			if flags.Changed("stem") {
				p.STEM = stem
			}
			if flags.Changed("country") {
				p.CountryOfBirth = country
			}
			if flags.Changed("canadian-or-mexican") {
				p.CanadianOrMexican = canMex
			}
			if flags.Changed("extraordinary") {
				p.Special.ExtraordinaryAbility = extraordinary
			}
			if flags.Changed("researcher") {
				p.Special.OutstandingResearcher = researcher
			}
			if flags.Changed("executive") {
				p.Special.ExecutiveManager = executive
			}
			if flags.Changed("married-to-citizen") {
				p.Special.MarriedToUSCitizen = married
			}
			if flags.Changed("investor") {
				p.Special.InvestmentCapital = investor
			}

			switch {
			case clearPD:
				p.ExistingPriorityDate = nil
			case flags.Changed("pd"):
				m, ok := domain.ParseOptionalDate(pd).Month()
				if !ok {
					return fmt.Errorf("invalid priority date %q: use YYYY-MM", pd)
				}
				if pdCategory.value == "" {
					return fmt.Errorf("--pd-category is required with --pd")
				}
				p.ExistingPriorityDate = &domain.ExistingPriorityDate{
					Date:         m,
					Category:     pdCategory.value,
					I140Approved: pdApproved,
				}
			case p.ExistingPriorityDate != nil && flags.Changed("pd-i140-approved"):
				p.ExistingPriorityDate.I140Approved = pdApproved
			}

			if err := app.Profiles.Save(ctx, p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProfile(p))
			return nil
		},
	}

	cmd.Flags().Var(status, "status", "Current status: none, f1, opt, h1b, h4, l1, tn, o1, other")
	cmd.Flags().Var(education, "education", "Education: none, bachelors, masters, doctorate")
	cmd.Flags().Var(experience, "experience", "Experience band: 0-2, 2-5, 5-10, 10+")
	cmd.Flags().BoolVar(&stem, "stem", false, "STEM field")
	cmd.Flags().StringVar(&country, "country", "", "Country of birth")
	cmd.Flags().BoolVar(&canMex, "canadian-or-mexican", false, "Canadian or Mexican citizen")
	cmd.Flags().BoolVar(&extraordinary, "extraordinary", false, "Extraordinary ability")
	cmd.Flags().BoolVar(&researcher, "researcher", false, "Outstanding researcher")
	cmd.Flags().BoolVar(&executive, "executive", false, "Multinational executive or manager")
	cmd.Flags().BoolVar(&married, "married-to-citizen", false, "Married to a US citizen")
	cmd.Flags().BoolVar(&investor, "investor", false, "Investment capital available")
	cmd.Flags().StringVar(&pd, "pd", "", "Existing priority date (YYYY-MM)")
	cmd.Flags().Var(pdCategory, "pd-category", "Category of the existing priority date")
	cmd.Flags().BoolVar(&pdApproved, "pd-i140-approved", false, "The I-140 behind the priority date is approved")
	cmd.Flags().BoolVar(&clearPD, "clear-pd", false, "Forget the existing priority date")
	cmd.MarkFlagsMutuallyExclusive("pd", "clear-pd")

	return cmd
}

func newProfileEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the profile in an interactive form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("profile edit: %w; use `profile set`", errNotInteractive)
			}
			ctx := cmd.Context()
			p, err := app.Profiles.Get(ctx)
			if err != nil {
				return err
			}

			v := profileFormValuesFrom(p)
			if err := profileForm(v).RunWithContext(ctx); err != nil {
				return err
			}
			if err := v.apply(p); err != nil {
				return err
			}
			if err := app.Profiles.Save(ctx, p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProfile(p))
			return nil
		},
	}
}
