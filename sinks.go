package triage

import (
	"io"
)

// String returns the contents of the Pipe as a string, or an error, and closes
// the pipe after reading. If there is an error reading, the pipe's error status
// is also set.
func (p *Pipe) String() (string, error) {
	if p == nil || p.Error() != nil {
		return "", p.Error()
	}
	defer p.Close()
	res, err := io.ReadAll(p.Reader)
	if err != nil {
		p.SetError(err)
		return "", err
	}
	return string(res), nil
}

// CountLines counts lines from the pipe's reader, and returns the integer
// result, or an error. If there is an error reading the pipe, the pipe's error
// status is also set.
func (p *Pipe) CountLines() (int, error) {
	var lines int
	err := p.EachLine(func(string) {
		lines++
	})
	return lines, err
}

// Stats describes what happened to each line during a Tally.
type Stats struct {
	Lines     int
	Malformed int
	Filtered  int
	Matched   int
}

// Tally reads access log lines from the pipe and counts the records accepted
// by f, keyed by (status, path). Lines that don't parse are skipped. If there
// is an error reading the pipe, the counts so far are returned along with the
// error.
func (p *Pipe) Tally(f Filter) (Tally, error) {
	t, _, err := p.TallyStats(f)
	return t, err
}

// TallyStats is like Tally, but also reports how many lines were read, how
// many were malformed, and how many were rejected by the filter.
func (p *Pipe) TallyStats(f Filter) (Tally, Stats, error) {
	t := Tally{}
	var st Stats
	err := p.EachLine(func(line string) {
		st.Lines++
		rec, ok := ParseLine(line)
		if !ok {
			st.Malformed++
			return
		}
		if !f.Match(rec) {
			st.Filtered++
			return
		}
		st.Matched++
		t.Add(rec)
	})
	return t, st, err
}
