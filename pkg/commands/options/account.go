package options

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AccountOptions carry sign-in credentials.
type AccountOptions struct {
	Email         string
	Password      string
	PasswordStdin bool
}

func AddAccountArgs(cmd *cobra.Command, o *AccountOptions) {
	cmd.Flags().StringVar(&o.Email, "email", "", "Account email.")
	cmd.Flags().StringVar(&o.Password, "password", "", "Account password. Prompted for when omitted.")
	cmd.Flags().BoolVar(&o.PasswordStdin, "password-stdin", false, "Read the password from stdin.")
}

// Complete prompts for anything missing. The password is read without echo
// when stdin is a terminal.
func (o *AccountOptions) Complete(in *os.File, out io.Writer) error {
	r := bufio.NewReader(in)
	if o.PasswordStdin {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		o.Password = strings.TrimRight(line, "\r\n")
	}
	if o.Email == "" {
		v, err := Prompt(r, out, "Email: ")
		if err != nil {
			return err
		}
		o.Email = v
	}
	if o.Password == "" {
		if !isatty.IsTerminal(in.Fd()) {
			return errors.New("no password given; use --password or --password-stdin")
		}
		_, _ = fmt.Fprint(out, "Password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return err
		}
		o.Password = string(b)
	}
	return nil
}

// Prompt writes label and reads one trimmed line.
func Prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	_, _ = fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
