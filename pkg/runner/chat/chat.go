// Package chat runs the reflection commands.
package chat

import (
	"context"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/printers"
)

// Sessions lists chat sessions, creating today's if needed.
type Sessions struct {
	App     *app.App
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Sessions) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	r := n.App.Reflection
	if err := r.Load(ctx); err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{"current": r.Current(), "sessions": r.Sessions()})
	}
	n.Printer.Sessions(r.Sessions(), r.Current())
	return nil
}

// History prints one session's transcript. An empty Session means the one
// last selected, or today's.
type History struct {
	App     *app.App
	Session string
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *History) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	r := n.App.Reflection
	if err := r.Load(ctx); err != nil {
		return err
	}
	if n.Session != "" && n.Session != r.Selected() {
		if err := r.Select(ctx, n.Session); err != nil {
			return err
		}
	}
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{"session": r.Selected(), "messages": r.Transcript()})
	}
	n.Printer.Transcript(r.Transcript())
	return nil
}

// Send posts a message to today's session and prints the exchange.
type Send struct {
	App     *app.App
	Message string
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Send) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	r := n.App.Reflection
	if err := r.Load(ctx); err != nil {
		return err
	}
	if r.Selected() != r.Current() {
		if err := r.Select(ctx, r.Current()); err != nil {
			return err
		}
	}
	before := len(r.Transcript())
	sendErr := r.Send(ctx, n.Message)
	items := r.Transcript()
	if before <= len(items) {
		items = items[before:]
	}
	if n.JSON {
		if sendErr != nil {
			return sendErr
		}
		return n.Printer.JSON(map[string]interface{}{"session": r.Selected(), "messages": items})
	}
	n.Printer.Transcript(items)
	return sendErr
}

// Summary prints the summary of a session, computing it when missing.
type Summary struct {
	App     *app.App
	Session string
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Summary) Do(ctx context.Context) error {
	if _, err := n.App.RequireSession(ctx); err != nil {
		return err
	}
	r := n.App.Reflection
	if err := r.Load(ctx); err != nil {
		return err
	}
	if n.Session != "" {
		if err := r.Select(ctx, n.Session); err != nil {
			return err
		}
	}
	sum, err := r.Summarize(ctx)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(sum)
	}
	n.Printer.Title("Session " + sum.SessionID)
	n.Printer.Text(sum.SummaryText)
	return nil
}
