package commands

import (
	"os"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tableflip.dev/tranquil/pkg/api"
	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/commands/options"
	"tableflip.dev/tranquil/pkg/logger"
	"tableflip.dev/tranquil/pkg/printers"
)

var (
	output = &options.OutputOptions{}
	debug  bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "tranquil",
		Short: base.Wrap80("Journal, reflect and review from the command line."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("api", "", "Base URL of the tranquil API. Overrides TRANQUIL_API.")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log every request and response to stderr.")
	_ = viper.BindPFlag("api", cmd.PersistentFlags().Lookup("api"))
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	options.AddOutputArg(cmd, output)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addUI(topLevel)
	addSignUp(topLevel)
	addLogin(topLevel)
	addLogout(topLevel)
	addWhoAmI(topLevel)
	addJournal(topLevel)
	addChat(topLevel)
	addSummary(topLevel)
	addProfile(topLevel)
	addInsights(topLevel)
	addOnboard(topLevel)
	addInfo(topLevel)
	addMCP(topLevel)
	addDevServer(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// openApp wires the client from configuration. Flags only win when set.
func openApp() (*app.App, error) {
	return app.Open(logger.New(os.Stderr, debug || viper.GetBool("debug")))
}

func printer() *printers.PrettyPrint {
	return &printers.PrettyPrint{}
}

// handle maps expired sessions onto a hint before handing err to the output
// options.
func handle(err error) error {
	if api.IsUnauthorized(err) {
		err = errSessionExpired
	}
	return output.HandleError(err)
}
