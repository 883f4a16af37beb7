package commands

import (
	"os"

	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/commands/options"
	"tableflip.dev/tranquil/pkg/runner/account"
)

func addSignUp(topLevel *cobra.Command) {
	ao := &options.AccountOptions{}

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account.",
		Example: `
tranquil signup --email me@example.com
echo "$PASSWORD" | tranquil signup --email me@example.com --password-stdin
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if err := ao.Complete(os.Stdin, cmd.ErrOrStderr()); err != nil {
				return output.HandleError(err)
			}
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := account.SignUp{
				App:      a,
				Email:    ao.Email,
				Password: ao.Password,
				JSON:     output.JSON,
				Printer:  printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	options.AddAccountArgs(cmd, ao)

	topLevel.AddCommand(cmd)
}

func addLogin(topLevel *cobra.Command) {
	ao := &options.AccountOptions{}

	cmd := &cobra.Command{
		Use:     "login",
		Aliases: []string{"signin"},
		Short:   "Sign in and remember the session.",
		Example: `
tranquil login
tranquil login --email me@example.com
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			if err := ao.Complete(os.Stdin, cmd.ErrOrStderr()); err != nil {
				return output.HandleError(err)
			}
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := account.Login{
				App:      a,
				Email:    ao.Email,
				Password: ao.Password,
				JSON:     output.JSON,
				Printer:  printer(),
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}
	options.AddAccountArgs(cmd, ao)

	topLevel.AddCommand(cmd)
}

func addLogout(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "logout",
		Aliases: []string{"signout"},
		Short:   "Forget the stored session.",
		Example: `
tranquil logout
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := account.Logout{
				App:     a,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}

func addWhoAmI(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Check the stored session with the server.",
		Example: `
tranquil whoami
tranquil whoami --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := account.WhoAmI{
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
