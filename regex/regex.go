package regex

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// ErrTimeout is returned by `Input.Find`, if the backtracking engine exceeds the match timeout.
var ErrTimeout = errors.New("match timeout")

// engine is a compiled pattern of one of the backends.
type engine interface {
	// groupNumbers returns the numbers of all capture groups in ascending order, excluding group 0.
	groupNumbers() []int
	// buildInput prepares the (already normalized) subject for matching.
	buildInput(s string) engineInput
}

// engineInput finds matches in a prepared subject.
// All positions are rune offsets into the subject, that was passed to `buildInput`.
type engineInput interface {
	// find returns the first match starting at or after `pos` as a list of start/end pairs,
	// beginning with group 0. Non-participating groups are reported as -1.
	// If no match exists, nil is returned.
	find(pos int, dstCap []int) ([]int, error)
}

// Pattern is a compiled regular expression together with the flags it was compiled with.
// A Pattern is immutable and safe for concurrent use.
type Pattern struct {
	source  string
	flags   FlagSet
	backend Backend

	search engine // unanchored pattern
	full   engine // pattern anchored at both ends
}

// Compile compiles the pattern with the given flags.
// If the pattern is malformed, a `*SyntaxError` is returned.
// The empty pattern is compiled like any other pattern; callers that treat it as idle must check it themselves.
func Compile(pattern string, flags FlagSet, opts Options) (*Pattern, error) {
	pp := newPreprocessor(pattern, flags)

	p := &Pattern{
		source: pattern,
		flags:  flags,
	}

	var err error

	switch opts.Backend {
	case BackendRE2:
		err = p.compileStd(pp)
	case BackendAuto:
		if pp.isStdSupported() {
			if err = p.compileStd(pp); err == nil {
				return p, nil
			}
		}

		err = p.compileFallback(pp, opts) // return the second error
	default:
		err = p.compileFallback(pp, opts)
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Pattern) compileStd(pp *preprocessor) error {
	if err := pp.checkStdFlags(); err != nil {
		return err
	}

	s := pp.stdPattern()

	// Parse the pattern without the flag prefix first, so the erroneous fragment can be found in the user's pattern.
	if _, err := syntax.Parse(pp.stdBody(), syntax.Perl); err != nil {
		return pp.stdError(err)
	}

	r, err := regexp.Compile(s)
	if err != nil {
		return pp.stdError(err)
	}

	full, err := regexp.Compile(pp.stdPrefix() + `\A(?:` + pp.stdBody() + `)\z`)
	if err != nil {
		return pp.stdError(err)
	}

	p.backend = BackendRE2
	p.search = &stdRegex{re: r}
	p.full = &stdRegex{re: full, anchored: true}

	return nil
}

func (p *Pattern) compileFallback(pp *preprocessor, opts Options) error {
	s, groups := pp.fallbackTranslate(pp.pattern)
	options := pp.fallbackOptions()

	r2, err := regexp2.Compile(s, options)
	if err != nil {
		return pp.fallbackError(err, options)
	}

	// The anchored variant must not be swallowed by a trailing comment of the pattern;
	// a line break terminates such a comment.
	var full *regexp2.Regexp
	for _, sep := range []string{"", "\n"} {
		full, err = regexp2.Compile(`\A(?:`+s+sep+`)\z`, options)
		if err == nil {
			break
		}
	}
	if err != nil {
		return pp.fallbackError(err, options)
	}

	if opts.Timeout > 0 {
		r2.MatchTimeout = opts.Timeout
		full.MatchTimeout = opts.Timeout
	}

	p.backend = BackendBacktrack
	p.search = newFallbEngine(r2, groups)
	p.full = newFallbEngine(full, groups)

	return nil
}

// String returns the pattern as typed.
func (p *Pattern) String() string {
	return p.source
}

// Flags returns the flags the pattern was compiled with.
func (p *Pattern) Flags() FlagSet {
	return p.flags
}

// Backend returns the backend that compiled the pattern.
// For `BackendAuto`, this is the backend actually chosen.
func (p *Pattern) Backend() Backend {
	return p.backend
}

// GroupNumbers returns the numbers of all capture groups in ascending order.
// Group 0 (the whole match) is not included.
func (p *Pattern) GroupNumbers() []int {
	return p.search.groupNumbers()
}

// NumGroups returns the number of capture groups.
func (p *Pattern) NumGroups() int {
	return len(p.search.groupNumbers())
}

// Input is a subject prepared for matching against a pattern.
// All positions of an Input are rune offsets into the original subject.
// An Input is not safe for concurrent use.
type Input struct {
	pattern *Pattern
	str     string // subject after normalization
	length  int
	offsets *offsetMap

	search engineInput
	full   engineInput // built on first use
}

// NewInput prepares the subject for matching.
func (p *Pattern) NewInput(subject string) *Input {
	s := subject

	var offsets *offsetMap
	if p.flags.IsEnabled(FlagCanonEq) {
		s, offsets = normalize(subject)
	}

	return &Input{
		pattern: p,
		str:     s,
		length:  utf8.RuneCountInString(subject),
		offsets: offsets,
	}
}

// Len returns the number of characters of the subject.
func (i *Input) Len() int {
	return i.length
}

// Find returns the first match starting at or after the character offset `pos`.
// The result contains start/end pairs for group 0 followed by the groups in the order of `Pattern.GroupNumbers`;
// groups that did not participate in the match are -1.
// If no match exists, nil is returned.
func (i *Input) Find(pos int) ([]int, error) {
	if pos < 0 || pos > i.length {
		return nil, nil
	}

	if i.search == nil {
		i.search = i.pattern.search.buildInput(i.str)
	}

	a, err := i.search.find(i.offsets.toInput(pos), nil)
	if err != nil || a == nil {
		return nil, err
	}

	i.offsets.apply(a)
	return a, nil
}

// FindFull returns the match of the whole subject, or nil if the subject does not match.
func (i *Input) FindFull() ([]int, error) {
	if i.full == nil {
		i.full = i.pattern.full.buildInput(i.str)
	}

	a, err := i.full.find(0, nil)
	if err != nil || a == nil {
		return nil, err
	}

	i.offsets.apply(a)
	return a, nil
}

type stdRegex struct {
	re       *regexp.Regexp
	anchored bool
}

type stdInput struct {
	re  *stdRegex
	str string

	offsetsRune []int // offsets for converting byte indices to rune indices

	matches [][]int // all matches as rune offsets; computed on first use
	done    bool
}

var (
	_ engine      = (*stdRegex)(nil)
	_ engineInput = (*stdInput)(nil)
	_ engine      = (*fallbEngine)(nil)
	_ engineInput = (*advInput)(nil)
)

func (r *stdRegex) groupNumbers() []int {
	n := r.re.NumSubexp()

	numbers := make([]int, n)
	for i := range numbers {
		numbers[i] = i + 1
	}

	return numbers
}

func (r *stdRegex) buildInput(s string) engineInput {
	return &stdInput{
		re:          r,
		str:         s,
		offsetsRune: getRuneOffsets(s),
	}
}

// The standard library cannot start a search at an arbitrary position without losing the
// context before it, so all matches are computed at once. This follows the semantics of
// `FindAllStringSubmatchIndex`: an empty match directly after a previous match is not reported.
func (i *stdInput) find(pos int, dstCap []int) ([]int, error) {
	if !i.done {
		i.done = true

		if i.re.anchored {
			if a := i.re.re.FindStringSubmatchIndex(i.str); a != nil {
				i.matches = [][]int{a}
			}
		} else {
			i.matches = i.re.re.FindAllStringSubmatchIndex(i.str, -1)
		}

		for _, a := range i.matches {
			applyOffsets(a, i.offsetsRune)
		}
	}

	for _, a := range i.matches {
		if a[0] >= pos {
			return append(dstCap[:0], a...), nil
		}
	}

	return nil, nil
}

func applyOffsets(a []int, offsets []int) {
	if a == nil || offsets == nil {
		return
	}
	for i, v := range a {
		if v >= 0 {
			a[i] = offsets[v]
		}
	}
}

// getRuneOffsets returns a table, that maps byte indices to rune indices.
// The table contains one extra entry for the end of the string.
// Invalid UTF-8 bytes count as one rune each, like the regex engines treat them.
// If the string has only ASCII characters, nil is returned, because the indices are identical.
func getRuneOffsets(s string) []int {
	if isASCIIString(s) { // if the string has only ASCII characters, offsets are not necessary
		return nil
	}

	offsets := make([]int, 0, len(s)+1)
	n := 0

	for len(s) > 0 {
		_, size := utf8.DecodeRuneInString(s)

		for i := 0; i < size; i++ {
			offsets = append(offsets, n)
		}
		n++

		s = s[size:] // if the rune is not valid, the size returned is 1, so slicing with `size` is correct
	}

	offsets = append(offsets, n)

	return offsets
}

type fallbEngine struct {
	re *regexp2.Regexp

	// numbers contains the regexp2 group numbers, ordered by the opening parentheses in the pattern.
	numbers []int
	// labels contains the reported group numbers, in the same order as `numbers`.
	labels []int
}

type advInput struct {
	re    *fallbEngine
	chars []rune
}

// newFallbEngine creates an engine for a compiled regexp2 pattern.
// regexp2 numbers named groups after all unnamed groups. The group keys of the pattern, in the order of
// their opening parentheses, are used to number all groups from left to right instead.
func newFallbEngine(r *regexp2.Regexp, groups []string) *fallbEngine {
	var numbers []int
	for _, n := range r.GetGroupNumbers() {
		if n != 0 {
			numbers = append(numbers, n)
		}
	}

	e := &fallbEngine{
		re:      r,
		numbers: numbers,
		labels:  numbers,
	}

	if ordered, ok := groupOrder(r, groups, numbers); ok {
		e.numbers = ordered
		e.labels = make([]int, len(ordered))

		for i := range e.labels {
			e.labels[i] = i + 1
		}
	}

	return e
}

// groupOrder maps the group keys to regexp2 group numbers.
// It fails, if the keys do not describe exactly the groups of the compiled pattern.
func groupOrder(r *regexp2.Regexp, groups []string, numbers []int) ([]int, bool) {
	if len(groups) != len(numbers) {
		return nil, false
	}

	valid := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		valid[n] = true
	}

	ordered := make([]int, 0, len(groups))

	for _, key := range groups {
		n := r.GroupNumberFromName(key)
		if !valid[n] {
			return nil, false
		}

		valid[n] = false
		ordered = append(ordered, n)
	}

	return ordered, true
}

func (r *fallbEngine) groupNumbers() []int {
	return r.labels
}

func (r *fallbEngine) buildInput(s string) engineInput {
	return &advInput{
		re:    r,
		chars: []rune(s),
	}
}

func (i *advInput) find(pos int, dstCap []int) ([]int, error) {
	if pos > len(i.chars) {
		return nil, nil
	}

	m, err := i.re.re.FindRunesMatchStartingAt(i.chars, pos)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	if m == nil {
		return nil, nil
	}

	a := growSlice(dstCap, 2*(1+len(i.re.numbers)))
	a[0] = m.Index
	a[1] = m.Index + m.Length

	for k, n := range i.re.numbers {
		start := -1
		end := -1

		if g := m.GroupByNumber(n); g != nil && len(g.Captures) != 0 {
			start = g.Index
			end = g.Index + g.Length
		}

		a[2*(k+1)] = start
		a[2*(k+1)+1] = end
	}

	return a, nil
}
