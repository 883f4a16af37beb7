package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/runner/info"
	"tableflip.dev/tranquil/pkg/store"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Where tranquil keeps its state and which API it talks to.",
		Example: `
tranquil info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			cfg, err := store.LoadConfig()
			if err != nil {
				return output.HandleError(err)
			}
			sessions, err := store.Load(cfg)
			if err != nil {
				return output.HandleError(err)
			}
			s := info.Info{
				Config:   cfg,
				Sessions: sessions,
				JSON:     output.JSON,
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	topLevel.AddCommand(cmd)
}
