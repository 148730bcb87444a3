package cli

import (
	"context"
	"errors"
	"io"

	errs "github.com/matzehuels/pyboot/pkg/errors"
)

// Exit statuses returned by ExitCode.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitInterrupted = 130 // shell convention for SIGINT
)

// Execute runs the command tree with args (os.Args[1:] in main) and
// returns the first command error.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// ExitCode maps the error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitError
	}
}

// ReportError prints err for a terminal user. Coded errors show their code
// so scripts can match on it.
func ReportError(w io.Writer, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	if code := errs.GetCode(err); code != "" {
		printError(w, "%s", errs.UserMessage(err))
		printDetail(w, "code: %s", code)
		return
	}
	printError(w, "%v", err)
}
