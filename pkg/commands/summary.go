package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/commands/options"
	"tableflip.dev/tranquil/pkg/prompt"
	"tableflip.dev/tranquil/pkg/runner/profile"
	"tableflip.dev/tranquil/pkg/summary"
)

func addSummary(topLevel *cobra.Command) {
	ro := &options.RangeOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize your journal over a range of days.",
		Example: `
tranquil summary
tranquil summary --from 2025-3-1 --to 2025-3-31
tranquil summary --last 2w
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			start, end, err := ro.GetRange(a.Config.Location())
			if err != nil {
				return output.HandleError(err)
			}
			s := profile.JournalSummary{
				App:     a,
				Start:   start,
				End:     end,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	options.AddRangeArgs(cmd, ro)

	topLevel.AddCommand(cmd)
}

func addProfile(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show what tranquil has learned about you.",
		Example: `
tranquil profile
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := profile.Profile{
				App:     a,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addInsights(topLevel *cobra.Command) {
	var generate bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Show your insights.",
		Example: `
tranquil insights
tranquil insights --generate
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := profile.Insights{
				App:      a,
				Generate: generate,
				JSON:     output.JSON,
				Printer:  printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	cmd.Flags().BoolVar(&generate, "generate", false, "Ask the server to regenerate the insights first.")

	topLevel.AddCommand(cmd)
}

func addOnboard(topLevel *cobra.Command) {
	ob := summary.Onboarding{}
	var interactive bool

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Answer the first-run questions and set your goals.",
		Example: `
tranquil onboard -i
tranquil onboard --name Sam --age 30 --aspirations "Sleep better and worry less." \
  --yearly "Run a half marathon" --accept-terms
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if interactive {
				if err := promptOnboarding(&ob, cmd); err != nil {
					return output.HandleError(err)
				}
			}
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := profile.Onboard{
				App:        a,
				Onboarding: ob,
				JSON:       output.JSON,
				Printer:    printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Ask for anything not given as a flag.")
	cmd.Flags().StringVar(&ob.Name, "name", "", "What to call you.")
	cmd.Flags().IntVar(&ob.Age, "age", 0, "Your age. Must be 13 or over.")
	cmd.Flags().StringVar(&ob.Gender, "gender", "", "Optional.")
	cmd.Flags().StringVar(&ob.Aspirations, "aspirations", "", "What you hope to get out of journaling.")
	cmd.Flags().StringVar(&ob.Goals.Yearly, "yearly", "", "A goal for this year.")
	cmd.Flags().StringVar(&ob.Goals.Monthly, "monthly", "", "A goal for this month.")
	cmd.Flags().StringVar(&ob.Goals.Weekly, "weekly", "", "A goal for this week.")
	cmd.Flags().BoolVar(&ob.TermsAccepted, "accept-terms", false, "Accept the terms of use.")

	topLevel.AddCommand(cmd)
}

func promptOnboarding(ob *summary.Onboarding, cmd *cobra.Command) error {
	ask := prompt.Asker{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
	var err error
	if ob.Name == "" {
		if ob.Name, err = ask.String("Name", false); err != nil {
			return err
		}
	}
	if ob.Age == 0 {
		if ob.Age, err = ask.Int("Age", summary.MinAge); err != nil {
			return err
		}
	}
	for _, q := range []struct {
		dst      *string
		label    string
		optional bool
	}{
		{&ob.Gender, "Gender", true},
		{&ob.Aspirations, "What do you hope to get out of journaling?", false},
		{&ob.Goals.Yearly, "A goal for this year", true},
		{&ob.Goals.Monthly, "A goal for this month", true},
		{&ob.Goals.Weekly, "A goal for this week", true},
	} {
		if *q.dst != "" {
			continue
		}
		if *q.dst, err = ask.String(q.label, q.optional); err != nil {
			return err
		}
	}
	if !ob.TermsAccepted {
		if ob.TermsAccepted, err = ask.Bool("Accept the terms of use?", false); err != nil {
			return err
		}
	}
	return nil
}
