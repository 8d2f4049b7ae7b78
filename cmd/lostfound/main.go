// Command lostfound manages campus lost item encoding rules and records.
package main

import (
	"context"
	"errors"
	"io"
	"os"

	"lostfound/internal/printer"
)

var exitFunc = os.Exit

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// cli runs one command and returns the process exit code.
func cli(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err == nil {
		return 0
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		printer.New(stdout, stderr).Error("%v", err)
	}
	return 1
}

// reportedError marks a failure the service already surfaced as a notification.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}
