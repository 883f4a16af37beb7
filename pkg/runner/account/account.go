// Package account runs the sign-up, sign-in, sign-out and whoami commands.
package account

import (
	"context"
	"errors"

	"tableflip.dev/tranquil/pkg/app"
	"tableflip.dev/tranquil/pkg/auth"
	"tableflip.dev/tranquil/pkg/printers"
)

// SignUp creates an account and signs in when the server returns a token.
type SignUp struct {
	App      *app.App
	Email    string
	Password string
	JSON     bool
	Printer  *printers.PrettyPrint
}

func (n *SignUp) Do(ctx context.Context) error {
	user, err := n.App.Auth.SignUp(ctx, n.Email, n.Password)
	if err != nil {
		return err
	}
	signedIn := n.App.Auth.State() == auth.StateAuthenticated
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{"user": user, "signed_in": signedIn})
	}
	if signedIn {
		n.Printer.Success("Signed up and signed in as %s.", user.Email)
		return nil
	}
	n.Printer.Success("Account created for %s. Run `tranquil login` to sign in.", user.Email)
	return nil
}

// Login signs in with email and password.
type Login struct {
	App      *app.App
	Email    string
	Password string
	JSON     bool
	Printer  *printers.PrettyPrint
}

func (n *Login) Do(ctx context.Context) error {
	user, err := n.App.Auth.SignIn(ctx, n.Email, n.Password)
	if err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(map[string]interface{}{"user": user})
	}
	n.Printer.Success("Signed in as %s.", user.Email)
	return nil
}

// Logout forgets the stored session.
type Logout struct {
	App     *app.App
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *Logout) Do(ctx context.Context) error {
	if err := n.App.Auth.SignOut(ctx); err != nil {
		return err
	}
	if n.JSON {
		return n.Printer.JSON(map[string]bool{"signed_out": true})
	}
	n.Printer.Success("Signed out.")
	return nil
}

// WhoAmI checks the stored session with the server.
type WhoAmI struct {
	App     *app.App
	JSON    bool
	Printer *printers.PrettyPrint
}

func (n *WhoAmI) Do(ctx context.Context) error {
	user, err := n.App.RequireSession(ctx)
	if n.JSON {
		out := map[string]interface{}{"state": n.App.Auth.State().String()}
		if err == nil {
			out["user"] = user
		}
		return n.Printer.JSON(out)
	}
	if errors.Is(err, app.ErrSignedOut) {
		n.Printer.Text("Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	n.Printer.Title(user.Email)
	n.Printer.Text("user " + user.ID)
	n.Printer.NewLine()
	return nil
}
