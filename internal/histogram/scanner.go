// Package histogram extracts wait event histogram rows from AWR text reports.
//
// A report is scanned line by line with a three-phase state machine:
// Idle until the layout's section header is seen, InSection until a valid
// "Event ..." column header follows, HeaderConfirmed until the requested
// wait event row is found. Step is a pure transition function so the machine
// can be driven and tested without any file I/O.
package histogram

import (
	"fmt"
	"strings"
)

// Phase is the scan position relative to the histogram section.
type Phase int

const (
	Idle Phase = iota
	InSection
	HeaderConfirmed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InSection:
		return "in-section"
	case HeaderConfirmed:
		return "header-confirmed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SectionMode controls when an open section is abandoned before its column header.
type SectionMode int

const (
	// SectionSticky keeps the section open from its header until the event row
	// is found, whatever lines come in between. AWR prints notes and blank
	// lines between the section title and the column header.
	SectionSticky SectionMode = iota
	// SectionContiguous drops back to Idle on the first line after the section
	// title that is neither the title nor an "Event" header line.
	SectionContiguous
)

// ParseSectionMode resolves "sticky" or "contiguous". Empty selects sticky.
func ParseSectionMode(name string) (SectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sticky":
		return SectionSticky, nil
	case "contiguous":
		return SectionContiguous, nil
	default:
		return 0, fmt.Errorf("unknown section mode %q (want sticky or contiguous)", name)
	}
}

func (m SectionMode) String() string {
	if m == SectionContiguous {
		return "contiguous"
	}
	return "sticky"
}

// Options tune a Scanner. The zero value reproduces the classic behaviour:
// prefix event matching and sticky sections.
type Options struct {
	Match   MatchMode
	Section SectionMode
}

// State is the value threaded through Step.
type State struct {
	Phase  Phase
	Result Result
}

// Scanner finds one wait event row of one layout.
type Scanner struct {
	layout  Layout
	matcher Matcher
	section SectionMode
}

// NewScanner builds a scanner for event in layout.
func NewScanner(layout Layout, event string, opts Options) (*Scanner, error) {
	if layout != TotalWaits && layout != UpTo32ms {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLayout, int(layout))
	}
	matcher, err := NewMatcher(event, opts.Match)
	if err != nil {
		return nil, err
	}
	return &Scanner{layout: layout, matcher: matcher, section: opts.Section}, nil
}

// Layout returns the scanner's layout.
func (s *Scanner) Layout() Layout { return s.layout }

// Event returns the wait event the scanner looks for.
func (s *Scanner) Event() string { return s.matcher.Event() }

// Start returns the initial state.
func (s *Scanner) Start() State {
	return State{Phase: Idle, Result: newResult(s.layout)}
}

// Step feeds one line to the machine. done is true once the event row has
// been extracted; the returned state then holds the complete result.
func (s *Scanner) Step(st State, line string) (next State, done bool) {
	sectionHit := strings.HasPrefix(line, s.layout.SectionHeader())
	if !sectionHit && st.Phase == Idle {
		return st, false
	}
	if st.Phase == Idle {
		st.Phase = InSection
	}

	if strings.HasPrefix(line, "Event") {
		if s.layout.isColumnHeader(strings.Fields(line)) {
			st.Phase = HeaderConfirmed
			st.Result.header = true
			return st, false
		}
		st.Phase = InSection
	}

	if st.Phase == HeaderConfirmed && s.matcher.Match(line) {
		st.Result = s.extractRow(st.Result, line)
		st.Phase = Idle
		return st, true
	}

	if s.section == SectionContiguous && st.Phase == InSection && !sectionHit {
		st.Phase = Idle
	}
	return st, false
}

// Scan folds Step over lines and returns the result. Lines are not modified.
func (s *Scanner) Scan(lines []string) Result {
	st := s.Start()
	for _, line := range lines {
		var done bool
		if st, done = s.Step(st, line); done {
			break
		}
	}
	return st.Result
}

func (s *Scanner) extractRow(r Result, line string) Result {
	r.header = true
	r.found = true
	r.values[0] = slice(line, eventStart, eventEnd)
	r.values[1] = NormalizeCount(slice(line, countStart, countEnd))
	for i, start := range bucketStarts {
		r.values[2+i] = slice(line, start, start+bucketWide)
	}
	return r
}

// Extract scans lines for event using prefix matching and sticky sections.
func Extract(lines []string, layout Layout, event string) Result {
	s, err := NewScanner(layout, event, Options{})
	if err != nil {
		return Result{layout: layout}
	}
	return s.Scan(lines)
}

// ExtractWith is Extract with explicit options. It fails only when the
// options cannot be applied, for example an invalid regex event pattern.
func ExtractWith(lines []string, layout Layout, event string, opts Options) (Result, error) {
	s, err := NewScanner(layout, event, opts)
	if err != nil {
		return Result{layout: layout}, err
	}
	return s.Scan(lines), nil
}
