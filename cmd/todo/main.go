// Package main implements the todo CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/amonks/tracker/internal/config"
	"github.com/amonks/tracker/internal/failure"
	"github.com/spf13/cobra"
)

func main() {
	env, err := config.ProcessEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(os.Args[1:], &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		env:    env,
		dir:    dir,
		now:    time.Now,
	}))
}

// run executes one command and returns the process exit status.
func run(args []string, a *app) int {
	cobra.EnableCaseInsensitive = true

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	printError(a.stderr, err)

	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return failure.ExitCode(err)
}

func printError(w io.Writer, err error) {
	if errors.Is(err, config.ErrNoCredentials) {
		fmt.Fprintln(w, "❌ No API token found. Generate one with /token in Telegram bot.")
		fmt.Fprintln(w, "   Save token to ~/.todo-cli-token or set TODO_CLI_TOKEN env var.")
		return
	}
	fmt.Fprintf(w, "❌ %v\n", err)
}

// reportedError carries the message shown to the user and the cause used
// for classification.
type reportedError struct {
	message string
	err     error
}

func (e *reportedError) Error() string { return e.message }

func (e *reportedError) Unwrap() error { return e.err }

func report(err error, message string) error {
	return &reportedError{message: message, err: err}
}

func reportf(err error, format string, args ...any) error {
	return &reportedError{message: fmt.Sprintf(format, args...), err: err}
}
