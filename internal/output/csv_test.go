package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tinytelemetry/awrhist/internal/histogram"
	"github.com/tinytelemetry/awrhist/internal/model"
)

func foundRow(file, event, count string) *model.HistogramRow {
	values := []string{event, count, "1.0", "2.0", "3.0", "4.0", "5.0", "6.0", "7.0", "8.0"}
	return &model.HistogramRow{
		Layout:    histogram.TotalWaits.String(),
		WaitEvent: event,
		Filename:  file,
		Found:     true,
		Columns:   histogram.TotalWaits.Columns(),
		Values:    values,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}

func TestWriter_CombinedHeaderOnce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "awr1.txt")
	b := filepath.Join(dir, "sub", "awr2.txt")

	w := NewWriter(histogram.TotalWaits, Config{Mode: Combined})
	for _, row := range []*model.HistogramRow{
		foundRow(a, "db file sequential read", "1200.0"),
		foundRow(a, "log file parallel write", "450"),
		foundRow(b, "db file sequential read", "3000000.0"),
	} {
		if err := w.Add(row); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	paths := w.Paths()
	want := filepath.Join(dir, "histogram_total_waits_summary.csv")
	if len(paths) != 1 || paths[0] != want {
		t.Fatalf("Paths() = %v, want [%s]", paths, want)
	}

	records := readCSV(t, want)
	if len(records) != 4 {
		t.Fatalf("records = %d, want header + 3 rows", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "Event,Waits,<8us,<16us,<32us,<64us,<128u,<256u,<512u,>=512,Filename" {
		t.Errorf("header = %q", header)
	}
	for i, rec := range records[1:] {
		if rec[0] == "Event" {
			t.Errorf("row %d repeats the header", i+1)
		}
	}
	if last := records[3]; last[len(last)-1] != b {
		t.Errorf("last row filename = %q, want %q", last[len(last)-1], b)
	}
	if w.Rows() != 3 {
		t.Errorf("Rows() = %d, want 3", w.Rows())
	}
}

func TestWriter_CombinedDirOverride(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	w := NewWriter(histogram.UpTo32ms, Config{Dir: outDir})
	if err := w.Add(foundRow(filepath.Join(t.TempDir(), "awr.txt"), "log file sync", "5")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want := filepath.Join(outDir, "histogram_up_to_32ms_summary.csv")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected %s: %v", want, err)
	}
	if got := readCSV(t, want)[0][1]; got != "32m" {
		t.Errorf("count header = %q, want 32m", got)
	}
}

func TestWriter_PerReport(t *testing.T) {
	t.Parallel()

	dirA := t.TempDir()
	dirB := t.TempDir()
	w := NewWriter(histogram.TotalWaits, Config{Mode: PerReport})

	rows := []*model.HistogramRow{
		foundRow(filepath.Join(dirA, "one.txt"), "db file sequential read", "1"),
		foundRow(filepath.Join(dirB, "two.txt"), "db file sequential read", "2"),
		foundRow(filepath.Join(dirA, "three.txt"), "db file sequential read", "3"),
	}
	for _, row := range rows {
		if err := w.Add(row); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if got := len(w.Paths()); got != 2 {
		t.Fatalf("Paths() = %d files, want 2", got)
	}
	if got := len(readCSV(t, filepath.Join(dirA, "histogram_total_waits_summary.csv"))); got != 3 {
		t.Errorf("dirA records = %d, want header + 2", got)
	}
	if got := len(readCSV(t, filepath.Join(dirB, "histogram_total_waits_summary.csv"))); got != 2 {
		t.Errorf("dirB records = %d, want header + 1", got)
	}
}

func TestWriter_MissingRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := &model.HistogramRow{Filename: filepath.Join(dir, "awr.txt"), WaitEvent: "log file sync"}

	w := NewWriter(histogram.TotalWaits, Config{})
	if err := w.Add(missing); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	records := readCSV(t, filepath.Join(dir, "histogram_total_waits_summary.csv"))
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if len(records[1]) != histogram.ColumnCount+1 {
		t.Errorf("missing row width = %d, want %d", len(records[1]), histogram.ColumnCount+1)
	}
	if records[1][0] != "" || records[1][histogram.ColumnCount] != missing.Filename {
		t.Errorf("missing row = %q", records[1])
	}

	skipping := NewWriter(histogram.TotalWaits, Config{Dir: t.TempDir(), SkipMissing: true})
	if err := skipping.Add(missing); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(skipping.Paths()) != 0 || skipping.Rows() != 0 {
		t.Error("skip-missing writer should not create a file for a missing row")
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Mode{"": Combined, "combined": Combined, "per-report": PerReport, "PER_REPORT": PerReport} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseMode("sharded"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
