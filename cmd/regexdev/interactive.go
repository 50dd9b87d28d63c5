package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/magnetde/regexdev"
	"github.com/magnetde/regexdev/regex"
)

const interactiveHelp = `commands:
  :pattern P    set the pattern
  :subject S    set the subject; S may be a quoted string with escapes like "a\nb"
  :flag +f|-f   enable or disable a flag, e.g. ":flag +i"
  :flags F      replace all flags, e.g. ":flags i,m"
  :mode M       set the match mode, "search" or "fullmatch"
  :show         print the current state
  :help         print this help
  :quit         exit
any other line sets the subject
`

// runInteractive reads commands line by line, applies them to a session and prints the new artifacts after each.
func runInteractive(ctx context.Context, ev *regexdev.Evaluator, opts *options, stdin io.Reader, stdout, stderr io.Writer) int {
	s := regexdev.NewSession(ev)

	// the command line provides the initial state
	req, err := opts.request(stdin)
	if err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitUsage
	}

	s.SetFlags(req.Flags)
	s.SetMode(req.Mode)
	s.SetSubject(req.Subject)
	s.SetPattern(req.Pattern)

	if err := writeText(stdout, s.Request(), s.Outcome(), s.Artifacts()); err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitPattern
	}

	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			break
		}

		quit, err := apply(s, sc.Text(), stdout)
		if err != nil {
			fmt.Fprintln(stdout, "error:", err)
			continue
		}
		if quit {
			break
		}

		if err := writeText(stdout, s.Request(), s.Outcome(), s.Artifacts()); err != nil {
			fmt.Fprintln(stderr, "regexdev:", err)
			return exitPattern
		}
	}

	if err := sc.Err(); err != nil {
		fmt.Fprintln(stderr, "regexdev:", err)
		return exitPattern
	}

	return exitOK
}

// apply executes a single command line.
func apply(s *regexdev.Session, line string, w io.Writer) (quit bool, err error) {
	if !strings.HasPrefix(line, ":") {
		s.SetSubject(line)
		return false, nil
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")

	switch cmd {
	case "pattern", "p":
		s.SetPattern(arg)
	case "subject", "s":
		subject, err := unquote(arg)
		if err != nil {
			return false, err
		}
		s.SetSubject(subject)
	case "flag", "f":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return false, fmt.Errorf("missing flag")
		}

		on := true
		switch arg[0] {
		case '+':
			arg = arg[1:]
		case '-':
			on = false
			arg = arg[1:]
		}

		f, err := regex.ParseFlag(arg)
		if err != nil {
			return false, err
		}
		s.Toggle(f, on)
	case "flags":
		flags, err := regex.ParseFlagSet(arg)
		if err != nil {
			return false, err
		}
		s.SetFlags(flags)
	case "mode", "m":
		mode, err := regexdev.ParseMatchMode(arg)
		if err != nil {
			return false, err
		}
		s.SetMode(mode)
	case "show":
		req := s.Request()
		fmt.Fprintf(w, "pattern: %s\nsubject: %s\nflags: %s\nmode: %s\n",
			strconv.Quote(req.Pattern), strconv.Quote(req.Subject), req.Flags, req.Mode)
	case "help", "h":
		fmt.Fprint(w, interactiveHelp)
	case "quit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q", ":"+cmd)
	}

	return false, nil
}

// unquote interprets a quoted argument; unquoted arguments are taken literally.
func unquote(arg string) (string, error) {
	if len(arg) >= 2 && arg[0] == '"' {
		return strconv.Unquote(arg)
	}

	return arg, nil
}
