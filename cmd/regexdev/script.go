package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.starlark.net/lib/json"
	"go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/starlarkdev"
)

// runScript executes a Starlark script with the regexdev, json and time modules predeclared.
// The output of `print` is written to stdout.
func runScript(ctx context.Context, ev *regexdev.Evaluator, filename string, stdout, stderr io.Writer) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitUsage
	}

	if err := execScript(ctx, ev, filename, src, stdout); err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			fmt.Fprintln(stderr, evalErr.Backtrace())
		} else {
			fmt.Fprintln(stderr, err)
		}

		return exitPattern
	}

	return exitOK
}

func execScript(ctx context.Context, ev *regexdev.Evaluator, filename string, src []byte, stdout io.Writer) error {
	predeclared := starlark.StringDict{
		"regexdev": starlarkdev.NewModule(ev),
		"json":     json.Module,
		"time":     time.Module,
	}

	opts := syntax.FileOptions{
		Set:             true,
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			fmt.Fprintln(stdout, msg)
		},
	}
	starlarkdev.SetContext(thread, ctx)

	// stop the script, if the context is cancelled
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(context.Cause(ctx).Error())
	})
	defer stop()

	_, err := starlark.ExecFileOptions(&opts, thread, filename, src, predeclared)
	return err
}
