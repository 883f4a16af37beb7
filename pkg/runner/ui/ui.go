// Package ui launches the terminal interface.
package ui

import (
	"context"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/logger"
	"tableflip.dev/tranquil/pkg/store"
	teaui "tableflip.dev/tranquil/pkg/tui/app"
)

// UI runs the full-screen client. The screen belongs to Bubble Tea, so logs
// go to tranquil.log under the config path.
type UI struct {
	Config store.Config
	Debug  bool
}

func (d *UI) Do(ctx context.Context) error {
	if d.Config == nil {
		var err error
		if d.Config, err = store.LoadConfig(); err != nil {
			return err
		}
	}

	log, f, err := logger.File(d.Config.BasePath(), d.Debug || d.Config.Debug())
	if err != nil {
		return err
	}
	defer f.Close()

	sessions, err := store.Load(d.Config)
	if err != nil {
		return err
	}
	a, err := app.New(app.Options{Config: d.Config, Sessions: sessions, Log: log})
	if err != nil {
		return err
	}

	log.Info().Str("api", d.Config.APIBaseURL()).Msg("starting terminal ui")
	return teaui.Run(a)
}
