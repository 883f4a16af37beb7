// Package prompt asks questions on the terminal for commands run with -i.
package prompt

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// Asker runs prompts against one pair of streams. Nil streams mean the
// process's own.
type Asker struct {
	In  io.Reader
	Out io.Writer
}

var templates = &promptui.PromptTemplates{
	Prompt:  "{{ . }} ",
	Valid:   "{{ . | green }} ",
	Invalid: "{{ . | red }} ",
	Success: "{{ . | bold }} ",
}

func (a Asker) run(p promptui.Prompt) (string, error) {
	p.Templates = templates
	if a.In != nil {
		p.Stdin = io.NopCloser(a.In)
	}
	if a.Out != nil {
		p.Stdout = NopCloser(a.Out)
	}
	return p.Run()
}

// String asks for text. An empty answer is allowed only when optional.
func (a Asker) String(label string, optional bool) (string, error) {
	validate := func(in string) error {
		if !optional && strings.TrimSpace(in) == "" {
			return errors.New("an answer is required")
		}
		return nil
	}
	if optional {
		label += " (optional)"
	}
	v, err := a.run(promptui.Prompt{Label: label + ":", Validate: validate})
	return strings.TrimSpace(v), err
}

// Int asks for a whole number of at least min.
func (a Asker) Int(label string, min int) (int, error) {
	validate := func(in string) error {
		n, err := strconv.Atoi(strings.TrimSpace(in))
		if err != nil {
			return errors.New("enter a number")
		}
		if n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
	v, err := a.run(promptui.Prompt{Label: label + ":", Validate: validate})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(v))
}

// Bool asks a yes/no question. An empty answer is def.
func (a Asker) Bool(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	validate := func(in string) error {
		if strings.TrimSpace(in) == "" {
			return nil
		}
		_, err := ParseBool(strings.TrimSpace(in))
		return err
	}
	v, err := a.run(promptui.Prompt{Label: fmt.Sprintf("%s [%s]", label, hint), Validate: validate})
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	return ParseBool(strings.TrimSpace(v))
}

// ParseBool is strconv.ParseBool with the addition of Yes/No parsing.
func ParseBool(str string) (bool, error) {
	switch str {
	case "1", "t", "T", "true", "TRUE", "True", "y", "Y", "yes", "YES", "Yes":
		return true, nil
	case "0", "f", "F", "false", "FALSE", "False", "n", "N", "no", "NO", "No":
		return false, nil
	}
	return false, &strconv.NumError{Func: "ParseBool", Num: str, Err: strconv.ErrSyntax}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NopCloser returns a WriteCloser with a no-op Close method wrapping w.
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}
