package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/tranquil/pkg/runner/chat"
)

func addChat(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"reflect"},
		Short:   "Reflect on your day in conversation.",
		Example: `
tranquil chat sessions
tranquil chat send "I keep putting off the hard conversation with my manager."
tranquil chat history
tranquil chat summary
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	addChatSessions(cmd)
	addChatHistory(cmd)
	addChatSend(cmd)
	addChatSummary(cmd)

	topLevel.AddCommand(cmd)
}

func addChatSessions(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List chat sessions, starting today's if needed.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := chat.Sessions{
				App:     a,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}

	parent.AddCommand(cmd)
}

func addChatHistory(parent *cobra.Command) {
	var session string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the messages of a session. Defaults to the last one opened.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := chat.History{
				App:     a,
				Session: session,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session id, as listed by `tranquil chat sessions`.")

	parent.AddCommand(cmd)
}

func addChatSend(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message in today's session and print the reply.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := chat.Send{
				App:     a,
				Message: strings.Join(args, " "),
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}

	parent.AddCommand(cmd)
}

func addChatSummary(parent *cobra.Command) {
	var session string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize a session, computing the summary when there is none.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			a, err := openApp()
			if err != nil {
				return output.HandleError(err)
			}
			s := chat.Summary{
				App:     a,
				Session: session,
				JSON:    output.JSON,
				Printer: printer(),
			}
			err = s.Do(cmd.Context())
			return handle(err)
		},
	}
	cmd.Flags().StringVar(&session, "session", "", "Session id. Defaults to the last one opened.")

	parent.AddCommand(cmd)
}
