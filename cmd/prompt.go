package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/desertthunder/narrate/internal/shared"
)

// terminalFd returns the file descriptor of the runner's input when it is an interactive terminal.
func (r *Runner) terminalFd() (int, bool) {
	f, ok := r.input.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (r *Runner) reader() *bufio.Reader {
	if r.lines == nil {
		r.lines = bufio.NewReader(r.input)
	}
	return r.lines
}

// prompt asks for a line of input. Empty answers are allowed.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.reader().ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a password without echo on a terminal, or a plain line otherwise.
func (r *Runner) promptSecret(label string) (string, error) {
	fd, ok := r.terminalFd()
	if !ok {
		return r.prompt(label)
	}

	r.writePlain("%s: ", label)
	b, err := term.ReadPassword(fd)
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// valueOr returns v, prompting for it when empty.
func (r *Runner) valueOr(v, label string) (string, error) {
	if v = strings.TrimSpace(v); v != "" {
		return v, nil
	}
	v, err := r.prompt(label)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return v, nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func (r *Runner) confirm(question string) bool {
	answer, err := r.prompt(question + " [y/N]")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
