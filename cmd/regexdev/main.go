// Command regexdev evaluates regular expressions from the command line.
//
// Usage:
//
//	regexdev -pattern P [-subject S | -subject-file F] [-flags i,m] [-mode search|fullmatch] [-format text|json]
//	regexdev -interactive
//	regexdev -script file.star
//
// Every flag may also be given as an environment variable with the prefix REGEXDEV_,
// e.g. REGEXDEV_BACKEND=re2. The command line takes precedence over the environment.
//
// The exit code is 0 on success, 1 if the pattern is malformed or the script fails, and 2 on usage errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/internal/config"
	"github.com/magnetde/regexdev/internal/logging"
	"github.com/magnetde/regexdev/regex"
)

const (
	exitOK       = 0
	exitPattern  = 1
	exitUsage    = 2
	formatText   = "text"
	formatJSON   = "json"
	stdinSubject = "-"
)

// options contains the parsed command line.
type options struct {
	pattern     string
	subject     string
	subjectFile string
	flags       string
	mode        string
	format      string
	interactive bool
	script      string
	cfg         config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}

// usageError is an error in the command line.
type usageError struct {
	msg string
}

func (e *usageError) Error() string {
	return e.msg
}

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := options{cfg: config.Default()}

	fs := flag.NewFlagSet("regexdev", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.pattern, "pattern", "", "regular expression to evaluate")
	fs.StringVar(&opts.subject, "subject", "", "text to match against")
	fs.StringVar(&opts.subjectFile, "subject-file", "", `file containing the subject, "-" for stdin`)
	fs.StringVar(&opts.flags, "flags", "", `flags, e.g. "i,m" or "CASE_INSENSITIVE|MULTILINE"`)
	fs.StringVar(&opts.mode, "mode", "search", `match mode, "search" or "fullmatch"`)
	fs.StringVar(&opts.format, "format", formatText, `output format, "text" or "json"`)
	fs.BoolVar(&opts.interactive, "interactive", false, "read commands from stdin and re-evaluate after each")
	fs.StringVar(&opts.script, "script", "", "run a Starlark script with the regexdev module")
	opts.cfg.RegisterFlags(fs)

	if err := config.Parse(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "Usage of regexdev:")
			fs.SetOutput(stderr)
			fs.PrintDefaults()

			return nil, err
		}

		return nil, usagef("%v", err)
	}
	if fs.NArg() > 0 {
		return nil, usagef("unexpected arguments: %v", fs.Args())
	}
	if err := opts.cfg.Validate(); err != nil {
		return nil, usagef("%v", err)
	}

	if opts.format != formatText && opts.format != formatJSON {
		return nil, usagef("unknown format %q", opts.format)
	}
	if opts.subject != "" && opts.subjectFile != "" {
		return nil, usagef("-subject and -subject-file are mutually exclusive")
	}
	if opts.interactive && opts.script != "" {
		return nil, usagef("-interactive and -script are mutually exclusive")
	}
	if opts.interactive && opts.subjectFile == stdinSubject {
		return nil, usagef("-interactive reads commands from stdin; -subject-file - is not possible")
	}
	if !opts.interactive && opts.script == "" && opts.pattern == "" {
		return nil, usagef("-pattern not specified")
	}

	return &opts, nil
}

// newEvaluator creates the evaluator of the parsed configuration.
func newEvaluator(opts *options, stderr io.Writer) *regexdev.Evaluator {
	cfg := opts.cfg.Evaluator()
	cfg.Logger = logging.NewWithWriter(opts.cfg.LogLevel, stderr)

	return regexdev.NewEvaluator(cfg)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitUsage
	}

	ev := newEvaluator(opts, stderr)

	switch {
	case opts.script != "":
		return runScript(ctx, ev, opts.script, stdout, stderr)
	case opts.interactive:
		return runInteractive(ctx, ev, opts, stdin, stdout, stderr)
	default:
		return runOnce(ctx, ev, opts, stdin, stdout, stderr)
	}
}

// request builds the request of a one-shot evaluation.
func (opts *options) request(stdin io.Reader) (regexdev.Request, error) {
	flags, err := regex.ParseFlagSet(opts.flags)
	if err != nil {
		return regexdev.Request{}, usagef("%v", err)
	}

	mode, err := regexdev.ParseMatchMode(opts.mode)
	if err != nil {
		return regexdev.Request{}, usagef("%v", err)
	}

	subject := opts.subject
	switch opts.subjectFile {
	case "":
	case stdinSubject:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return regexdev.Request{}, fmt.Errorf("couldn't read subject: %w", err)
		}
		subject = string(b)
	default:
		b, err := os.ReadFile(opts.subjectFile)
		if err != nil {
			return regexdev.Request{}, fmt.Errorf("couldn't read subject file: %w", err)
		}
		subject = string(b)
	}

	return regexdev.Request{
		Pattern: opts.pattern,
		Flags:   flags,
		Mode:    mode,
		Subject: subject,
	}, nil
}

func runOnce(ctx context.Context, ev *regexdev.Evaluator, opts *options, stdin io.Reader, stdout, stderr io.Writer) int {
	req, err := opts.request(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitUsage
	}

	o, a := ev.Evaluate(ctx, req)

	if opts.format == formatJSON {
		err = writeJSON(stdout, o, a)
	} else {
		err = writeText(stdout, req, o, a)
	}
	if err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitPattern
	}

	if !o.OK() {
		return exitPattern
	}

	return exitOK
}
