package histogram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLayout is returned when a layout name is not one of the supported modes.
var ErrUnknownLayout = errors.New("unknown histogram layout")

// Layout selects one of the two supported AWR wait event histogram tables.
type Layout int

const (
	// TotalWaits is the "Wait Event Histogram" table (buckets from <8us to >=512).
	TotalWaits Layout = iota
	// UpTo32ms is the "Wait Event Histogram (up to 32 ms)" table.
	UpTo32ms
)

// Layout names as accepted on the command line and used in output file names.
const (
	LayoutNameTotalWaits = "total_waits"
	LayoutNameUpTo32ms   = "up_to_32ms"
)

// Section headers, matched at the start of a report line.
const (
	SectionTotalWaits = "Wait Event Histogram"
	SectionUpTo32ms   = "Wait Event Histogram (up to 32 ms)"
)

// ColumnCount is the number of columns in every layout: Event, the count and eight buckets.
const ColumnCount = 10

// BucketCount is the number of latency buckets in every layout.
const BucketCount = 8

// Fixed character columns of a data row. These mirror the AWR text formatting
// and break if Oracle changes the report width.
const (
	eventStart = 0
	eventEnd   = 25
	countStart = 26
	countEnd   = 32
	bucketWide = 5
)

// bucketStarts are the first character offsets of the eight bucket cells.
var bucketStarts = [BucketCount]int{33, 39, 45, 51, 57, 63, 69, 75}

var totalWaitsColumns = [ColumnCount]string{
	"Event", "Waits", "<8us", "<16us", "<32us", "<64us", "<128u", "<256u", "<512u", ">=512",
}

var upTo32msColumns = [ColumnCount]string{
	"Event", "32m", "<512", "<1ms", "<2ms", "<4ms", "<8ms", "<16ms", "<32ms", ">=32m",
}

// ParseLayout resolves a layout name such as "total_waits" or "up_to_32ms".
func ParseLayout(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case LayoutNameTotalWaits:
		return TotalWaits, nil
	case LayoutNameUpTo32ms:
		return UpTo32ms, nil
	default:
		return 0, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownLayout, name, LayoutNameTotalWaits, LayoutNameUpTo32ms)
	}
}

// String returns the layout name used on the command line.
func (l Layout) String() string {
	switch l {
	case TotalWaits:
		return LayoutNameTotalWaits
	case UpTo32ms:
		return LayoutNameUpTo32ms
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

// SectionHeader returns the literal that opens this layout's section.
func (l Layout) SectionHeader() string {
	if l == UpTo32ms {
		return SectionUpTo32ms
	}
	return SectionTotalWaits
}

// Columns returns the layout's column names in report order.
func (l Layout) Columns() []string {
	cols := l.columns()
	return cols[:]
}

// CountColumn returns the name of the column holding the total wait count.
func (l Layout) CountColumn() string {
	return l.columns()[1]
}

// BucketColumns returns the eight bucket column names.
func (l Layout) BucketColumns() []string {
	cols := l.columns()
	return cols[2:]
}

// OutputFileName is the summary CSV name for the layout.
func (l Layout) OutputFileName() string {
	return "histogram_" + l.String() + "_summary.csv"
}

func (l Layout) columns() [ColumnCount]string {
	if l == UpTo32ms {
		return upTo32msColumns
	}
	return totalWaitsColumns
}

// isColumnHeader validates the tokens of an "Event ..." line against the layout.
// The distinguishing token sits at a different index in each layout because the
// 32ms header reads "Event to 32m <512 ...".
func (l Layout) isColumnHeader(tokens []string) bool {
	if len(tokens) == 0 || tokens[0] != "Event" {
		return false
	}
	switch l {
	case TotalWaits:
		return len(tokens) > 1 && tokens[1] == "Waits"
	case UpTo32ms:
		return len(tokens) > 2 && tokens[2] == "32m"
	default:
		return false
	}
}

// slice returns line[start:end] clamped to the line length, trimmed.
func slice(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}
