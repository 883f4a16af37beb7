package commands

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/commands/options"
	"tableflip.dev/tranquil/pkg/runner/journal"
)

func addJournal(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Write and review daily journal entries.",
		Example: `
tranquil journal write "Slept well, long walk after lunch."
tranquil journal calendar
tranquil journal report
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	addWrite(cmd)
	addDates(cmd)
	addCalendar(cmd)
	addReport(cmd)

	topLevel.AddCommand(cmd)
}

func addWrite(topLevel *cobra.Command) {
	oo := &options.OnOptions{}
	var file string

	cmd := &cobra.Command{
		Use:   "write [text]",
		Short:   "Save the journal entry for a day, replacing what was there.",
		Example: `
tranquil journal write "Slept well, long walk after lunch."
tranquil journal write --on yesterday "Busy day."
tranquil journal write --file notes.md --on 2025-3-14
cat notes.md | tranquil journal write -
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			on, err := oo.GetOn(a.Config.Location())
			if err != nil {
				return output.HandleError(err)
			}
			content, err := readContent(args, file, cmd.InOrStdin())
			if err != nil {
				return output.HandleError(err)
			}
			s := journal.Write{
				App:     a,
				On:      on,
				Content: content,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	options.AddOnArgs(cmd, oo)
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the entry from a file.")

	topLevel.AddCommand(cmd)
}

// readContent takes the entry from --file, from stdin when the only argument
// is "-", or from the arguments joined by spaces.
func readContent(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case file != "":
		b, err := os.ReadFile(file)
		return string(b), err
	case len(args) == 1 && args[0] == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	return strings.Join(args, " "), nil
}

func addDates(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List the days that have a journal entry.",
		Example: `
tranquil journal dates
tranquil journal dates --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := journal.Dates{
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

func addCalendar(topLevel *cobra.Command) {
	mo := &options.MonthOptions{}

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month with the days you wrote highlighted.",
		Example: `
tranquil journal calendar
tranquil journal calendar --month 2025-03
tranquil journal cal --month "March 2025"
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			month, err := mo.GetMonth(a.Config.Location())
			if err != nil {
				return output.HandleError(err)
			}
			s := journal.Calendar{
				App:     a,
				Month:   month,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	options.AddMonthArgs(cmd, mo)

	topLevel.AddCommand(cmd)
}

func addReport(topLevel *cobra.Command) {
	ro := &options.RangeOptions{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Count the days you wrote, per month, with your streaks.",
		Example: `
tranquil journal report
tranquil journal report --from 2025-1-1 --to 2025-3-31
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			since, until, err := ro.GetRange(a.Config.Location())
			if err != nil {
				return output.HandleError(err)
			}
			s := journal.Report{
				App:     a,
				Since:   since,
				Until:   until,
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
