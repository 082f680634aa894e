package histogram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coregx/coregex"
)

// ErrUnknownMatchMode is returned for an unsupported event matching mode.
var ErrUnknownMatchMode = errors.New("unknown match mode")

// MatchMode controls how a wait event name is compared with a data row.
type MatchMode int

const (
	// MatchPrefix accepts a row whose text starts with the event name.
	// "log file parallel write" also matches a "log file parallel writes" row.
	MatchPrefix MatchMode = iota
	// MatchExact compares the trimmed event column with the trimmed name.
	MatchExact
	// MatchRegex treats the event name as a regular expression anchored at line start.
	MatchRegex
)

// ParseMatchMode resolves "prefix", "exact" or "regex". Empty selects prefix.
func ParseMatchMode(name string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "prefix":
		return MatchPrefix, nil
	case "exact":
		return MatchExact, nil
	case "regex":
		return MatchRegex, nil
	default:
		return 0, fmt.Errorf("%w: %q (want prefix, exact or regex)", ErrUnknownMatchMode, name)
	}
}

func (m MatchMode) String() string {
	switch m {
	case MatchPrefix:
		return "prefix"
	case MatchExact:
		return "exact"
	case MatchRegex:
		return "regex"
	default:
		return fmt.Sprintf("match(%d)", int(m))
	}
}

// Matcher decides whether a report line is the data row of one wait event.
type Matcher interface {
	Match(line string) bool
	Event() string
}

// NewMatcher builds a matcher for event using mode.
func NewMatcher(event string, mode MatchMode) (Matcher, error) {
	switch mode {
	case MatchPrefix:
		return prefixMatcher{event: event}, nil
	case MatchExact:
		return exactMatcher{event: event, want: exactKey(event)}, nil
	case MatchRegex:
		re, err := coregex.Compile(`^(?:` + event + `)`)
		if err != nil {
			return nil, fmt.Errorf("compile event pattern %q: %w", event, err)
		}
		return regexMatcher{event: event, re: re}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMatchMode, int(mode))
	}
}

type prefixMatcher struct {
	event string
}

func (m prefixMatcher) Match(line string) bool { return strings.HasPrefix(line, m.event) }

func (m prefixMatcher) Event() string { return m.event }

type exactMatcher struct {
	event string
	want  string
}

func (m exactMatcher) Match(line string) bool {
	return m.want != "" && slice(line, eventStart, eventEnd) == m.want
}

func (m exactMatcher) Event() string { return m.event }

// exactKey is what the event column would hold for name: AWR cuts names at the column width.
func exactKey(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > eventEnd {
		name = name[:eventEnd]
	}
	return strings.TrimSpace(name)
}

type regexMatcher struct {
	event string
	re    *coregex.Regexp
}

func (m regexMatcher) Match(line string) bool { return m.re.MatchString(line) }

func (m regexMatcher) Event() string { return m.event }
