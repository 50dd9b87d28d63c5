package regexdev

import (
	"context"

	"github.com/magnetde/regexdev/regex"
)

// Session holds the mutable state of an interactive tool: the current pattern, subject, flags and mode.
// Every change re-evaluates the whole state and replaces the previous artifacts.
// A Session is not safe for concurrent use; it is meant to be owned by a single UI loop.
type Session struct {
	ev *Evaluator

	pattern string
	subject string
	flags   regex.FlagSet
	mode    MatchMode

	outcome   Outcome
	artifacts DisplayArtifacts
}

// NewSession creates a session in Search mode without flags.
func NewSession(ev *Evaluator) *Session {
	return &Session{
		ev:      ev,
		outcome: Outcome{Idle: true},
	}
}

// SetPattern replaces the pattern.
func (s *Session) SetPattern(pattern string) DisplayArtifacts {
	s.pattern = pattern
	return s.update()
}

// SetSubject replaces the subject.
func (s *Session) SetSubject(subject string) DisplayArtifacts {
	s.subject = subject
	return s.update()
}

// Toggle enables or disables a single flag.
func (s *Session) Toggle(f regex.Flag, on bool) DisplayArtifacts {
	s.flags = s.flags.Set(f, on)
	return s.update()
}

// SetFlags replaces all flags.
func (s *Session) SetFlags(flags regex.FlagSet) DisplayArtifacts {
	s.flags = flags
	return s.update()
}

// SetMode selects the match mode.
func (s *Session) SetMode(mode MatchMode) DisplayArtifacts {
	s.mode = mode
	return s.update()
}

func (s *Session) update() DisplayArtifacts {
	s.outcome, s.artifacts = s.ev.Evaluate(context.Background(), s.Request())
	return s.artifacts
}

// Request returns the current state as a request.
func (s *Session) Request() Request {
	return Request{
		Pattern: s.pattern,
		Flags:   s.flags,
		Mode:    s.mode,
		Subject: s.subject,
	}
}

// Flags returns the current flags.
func (s *Session) Flags() regex.FlagSet { return s.flags }

// Mode returns the current match mode.
func (s *Session) Mode() MatchMode { return s.mode }

// Outcome returns the outcome of the last evaluation.
func (s *Session) Outcome() Outcome { return s.outcome }

// Artifacts returns the artifacts of the last evaluation.
func (s *Session) Artifacts() DisplayArtifacts { return s.artifacts }
