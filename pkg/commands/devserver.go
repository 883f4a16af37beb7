package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tableflip.dev/tranquil/pkg/devserver"
	"tableflip.dev/tranquil/pkg/logger"
)

func addDevServer(topLevel *cobra.Command) {
	var (
		addr         string
		db           string
		secret       string
		accessTTL    time.Duration
		confirmEmail bool
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "run a local Tranquil API for development",
		Long: `Serve the Tranquil API from a local SQLite database. Point the client at it
with --api http://127.0.0.1:8000/api or TRANQUIL_API. Replies to chat
messages are canned; summaries and insights are computed locally.`,
		Example: `
tranquil devserver --db ~/.tranquil/dev.db
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(os.Stderr, debug || viper.GetBool("debug"))
			srv, err := devserver.New(devserver.Options{
				DBPath:       db,
				Secret:       secret,
				Log:          log,
				AccessExpiry: accessTTL,
				ConfirmEmail: confirmEmail,
			})
			if err != nil {
				return output.HandleError(err)
			}
			defer srv.Close()

			log.Info().Str("addr", addr).Str("db", db).Msg("devserver listening")
			return output.HandleError(srv.ListenAndServe(cmd.Context(), addr))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "address to listen on")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database file; empty keeps everything in memory")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("TRANQUIL_DEV_SECRET"), "secret used to sign access tokens")
	cmd.Flags().DurationVar(&accessTTL, "access-ttl", time.Hour, "lifetime of access tokens")
	cmd.Flags().BoolVar(&confirmEmail, "confirm-email", false, "return no tokens on sign up, as when an account needs confirming")

	topLevel.AddCommand(cmd)
}
