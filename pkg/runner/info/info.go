// Package info prints where tranquil keeps its state and which API it uses.
package info

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/tranquil/pkg/store"
)

type Info struct {
	Config   store.Config
	Sessions store.Sessions
	JSON     bool
}

func (n *Info) Do(ctx context.Context) error {
	if n.Config == nil {
		var err error
		n.Config, err = store.LoadConfig()
		if err != nil {
			return err
		}
	}

	override := os.Getenv("TRANQUIL_CONFIG_PATH")
	signedIn, email, welcome, lastChat := false, "", false, ""
	if n.Sessions != nil {
		if s, ok := n.Sessions.Session(); ok {
			signedIn, email = true, s.Email
		}
		welcome = n.Sessions.WelcomeSeen()
		lastChat, _ = n.Sessions.LastChatSession()
	}

	if n.JSON {
		return printJSON(map[string]interface{}{
			"config_path_override": override,
			"path":                 n.Config.BasePath(),
			"api":                  n.Config.APIBaseURL(),
			"timezone":             n.Config.Location().String(),
			"debug":                n.Config.Debug(),
			"signed_in":            signedIn,
			"email":                email,
			"onboarded":            welcome,
			"last_chat_session":    lastChat,
		})
	}

	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	if override != "" {
		tbl.AddRow(bold.Sprint("TRANQUIL_CONFIG_PATH"), override)
	}
	tbl.AddRow(bold.Sprint("path"), n.Config.BasePath())
	tbl.AddRow(bold.Sprint("api"), n.Config.APIBaseURL())
	tbl.AddRow(bold.Sprint("timezone"), n.Config.Location().String())
	tbl.AddRow(bold.Sprint("debug"), fmt.Sprint(n.Config.Debug()))
	if signedIn {
		tbl.AddRow(bold.Sprint("signed in"), email)
	} else {
		tbl.AddRow(bold.Sprint("signed in"), "no")
	}
	tbl.AddRow(bold.Sprint("onboarded"), fmt.Sprint(welcome))
	if lastChat != "" {
		tbl.AddRow(bold.Sprint("last session"), lastChat)
	}
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(color.Output, tbl)
	return nil
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(color.Output, string(b))
	return err
}
