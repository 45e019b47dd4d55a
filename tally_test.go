package triage_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bitfield/triage"
	"github.com/google/go-cmp/cmp"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time {
	return &t
}

// logLine formats a combined log format line for the given UTC instant.
func logLine(ts time.Time, status int, path string) string {
	return fmt.Sprintf(`10.1.2.3 - - [%s] "GET %s HTTP/1.1" %d 0 "-" "test"`,
		ts.Format("02/Jan/2006:15:04:05 -0700"), path, status)
}

func TestFilterMatch(t *testing.T) {
	t.Parallel()
	from, to := at("2025-07-15T14:00:00Z"), at("2025-07-15T15:00:00Z")
	window := triage.Filter{From: &from, To: &to}
	tcs := []struct {
		name   string
		filter triage.Filter
		rec    triage.Record
		want   bool
	}{
		{"zero filter accepts anything", triage.Filter{}, triage.Record{Time: at("1999-01-01T00:00:00Z"), Status: 200}, true},
		{"inside window", window, triage.Record{Time: at("2025-07-15T14:30:00Z")}, true},
		{"on lower bound", window, triage.Record{Time: from}, true},
		{"on upper bound", window, triage.Record{Time: to}, true},
		{"just before window", window, triage.Record{Time: from.Add(-time.Second)}, false},
		{"just after window", window, triage.Record{Time: to.Add(time.Second)}, false},
		{"open lower bound", triage.Filter{To: &to}, triage.Record{Time: at("1970-01-01T00:00:00Z")}, true},
		{"open upper bound", triage.Filter{From: &from}, triage.Record{Time: at("2099-01-01T00:00:00Z")}, true},
		{"wanted status", triage.Filter{Statuses: map[int]bool{499: true, 321: true}}, triage.Record{Status: 321}, true},
		{"unwanted status", triage.Filter{Statuses: map[int]bool{499: true}}, triage.Record{Status: 200}, false},
		{"empty status set", triage.Filter{Statuses: map[int]bool{}}, triage.Record{Status: 200}, true},
	}
	for _, tc := range tcs {
		got := tc.filter.Match(tc.rec)
		if got != tc.want {
			t.Errorf("%s: want %t, got %t", tc.name, tc.want, got)
		}
	}
}

func TestTallyCountsEachDistinctPairOnce(t *testing.T) {
	t.Parallel()
	base := at("2025-07-15T14:00:00Z")
	input := strings.Join([]string{
		logLine(base, 200, "/a"),
		logLine(base.Add(time.Minute), 404, "/b"),
		logLine(base.Add(2*time.Minute), 500, "/c"),
	}, "\n")
	got, err := triage.Echo(input).Tally(triage.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	want := triage.Tally{{200, "/a"}: 1, {404, "/b"}: 1, {500, "/c"}: 1}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
	if len(got.Top(10)) != 3 {
		t.Errorf("want 3 ranked rows, got %d", len(got.Top(10)))
	}
}

func TestTallyGroupsByStatusAndPath(t *testing.T) {
	t.Parallel()
	base := at("2025-07-15T14:00:00Z")
	input := strings.Join([]string{
		logLine(base, 499, "/api/x"),
		logLine(base, 200, "/api/y"),
		logLine(base, 499, "/api/x"),
		logLine(base, 200, "/api/x"),
	}, "\n")
	got, err := triage.Echo(input).Tally(triage.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	want := triage.Tally{{499, "/api/x"}: 2, {200, "/api/y"}: 1, {200, "/api/x"}: 1}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestTallyAppliesStatusFilter(t *testing.T) {
	t.Parallel()
	base := at("2025-07-15T14:00:00Z")
	input := logLine(base, 499, "/api/x") + "\n" + logLine(base, 200, "/api/x") + "\n"
	got, err := triage.Echo(input).Tally(triage.Filter{Statuses: map[int]bool{499: true}})
	if err != nil {
		t.Fatal(err)
	}
	want := triage.Tally{{499, "/api/x"}: 1}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestTallyCountsOnlyRecordsInsideWindow(t *testing.T) {
	t.Parallel()
	from, to := at("2025-07-15T14:00:00Z"), at("2025-07-15T14:10:00Z")
	var lines []string
	for i := -5; i <= 15; i++ {
		lines = append(lines, logLine(from.Add(time.Duration(i)*time.Minute), 200, "/tick"))
	}
	f := triage.Filter{From: &from, To: &to}
	got, st, err := triage.Echo(strings.Join(lines, "\n")).TallyStats(f)
	if err != nil {
		t.Fatal(err)
	}
	// minutes 0 through 10 inclusive
	if got[triage.Key{Status: 200, Path: "/tick"}] != 11 {
		t.Errorf("want 11 hits inside window, got %v", got)
	}
	want := triage.Stats{Lines: 21, Malformed: 0, Filtered: 10, Matched: 11}
	if !cmp.Equal(want, st) {
		t.Error(cmp.Diff(want, st))
	}
}

func TestTallySkipsMalformedLines(t *testing.T) {
	t.Parallel()
	got, st, err := triage.File("testdata/access.log").TallyStats(triage.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	want := triage.Tally{
		{499, "/api/x"}:  3,
		{200, "/api/y"}:  1,
		{321, "/health"}: 1,
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
	for k := range got {
		if k.Path == "/api/z" {
			t.Errorf("line with unparseable timestamp was counted: %v", k)
		}
	}
	wantStats := triage.Stats{Lines: 7, Malformed: 2, Filtered: 0, Matched: 5}
	if !cmp.Equal(wantStats, st) {
		t.Error(cmp.Diff(wantStats, st))
	}
}

func TestTallyReadsGzipFile(t *testing.T) {
	t.Parallel()
	f := triage.Filter{From: ptr(at("2025-07-15T00:00:00Z")), To: ptr(at("2025-07-15T23:59:59Z"))}
	want, err := triage.File("testdata/access.log").Tally(f)
	if err != nil {
		t.Fatal(err)
	}
	got, err := triage.File("testdata/access.log.gz").Tally(f)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestTopRanksByHitsThenStatusThenPath(t *testing.T) {
	t.Parallel()
	tally := triage.Tally{
		{500, "/b"}: 1,
		{499, "/z"}: 4,
		{200, "/b"}: 1,
		{200, "/a"}: 1,
		{404, "/q"}: 2,
	}
	got := tally.Top(0)
	want := []triage.Entry{
		{Rank: 1, Key: triage.Key{Status: 499, Path: "/z"}, Hits: 4},
		{Rank: 2, Key: triage.Key{Status: 404, Path: "/q"}, Hits: 2},
		{Rank: 3, Key: triage.Key{Status: 200, Path: "/a"}, Hits: 1},
		{Rank: 4, Key: triage.Key{Status: 200, Path: "/b"}, Hits: 1},
		{Rank: 5, Key: triage.Key{Status: 500, Path: "/b"}, Hits: 1},
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestTopLimitsRows(t *testing.T) {
	t.Parallel()
	tally := triage.Tally{{499, "/api/x"}: 2, {200, "/api/y"}: 1}
	tcs := []struct {
		n    int
		want int
	}{
		{1, 1},
		{2, 2},
		{10, 2},
		{0, 2},
		{-1, 2},
	}
	for _, tc := range tcs {
		got := len(tally.Top(tc.n))
		if got != tc.want {
			t.Errorf("Top(%d): want %d rows, got %d", tc.n, tc.want, got)
		}
	}
	top := tally.Top(1)
	want := triage.Entry{Rank: 1, Key: triage.Key{Status: 499, Path: "/api/x"}, Hits: 2}
	if !cmp.Equal(want, top[0]) {
		t.Error(cmp.Diff(want, top[0]))
	}
}

func TestTopOfEmptyTallyIsEmpty(t *testing.T) {
	t.Parallel()
	got := triage.Tally{}.Top(10)
	if len(got) != 0 {
		t.Errorf("want no entries, got %v", got)
	}
}
