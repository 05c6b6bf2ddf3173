package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// readSecret prompts for a secret and reads it without echoing it.
var readSecret = readSecretFromTerminal

func readSecretFromTerminal(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("standard input is not a terminal")
	}
	initialState, err := term.GetState(fd)
	if err != nil {
		return "", errors.WithStack(err)
	}

	// Restore the terminal if interrupted while echo is off.
	interrupt := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		select {
		case <-interrupt:
			_ = term.Restore(fd, initialState)
			os.Exit(1)
		case <-done:
		}
	}()
	defer func() {
		signal.Stop(interrupt)
		close(done)
	}()

	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "cannot read from the terminal")
	}
	return string(secret), nil
}
