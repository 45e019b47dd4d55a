package triage

import (
	"regexp"
	"strconv"
	"time"
)

// Record is one request from an access log.
type Record struct {
	Time   time.Time // always UTC
	Status int
	Path   string
}

// clfTimeLayout is the bracketed timestamp of the common log format, e.g.
// 15/Jul/2025:14:23:41 +0000.
const clfTimeLayout = "02/Jan/2006:15:04:05 -0700"

// accessLogPattern matches common and combined log format lines. Everything
// before the timestamp and after the status is ignored. The protocol is
// optional, as in HTTP/0.9 request lines.
var accessLogPattern = regexp.MustCompile(
	`\[(\d{2}/[A-Za-z]{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\] "[A-Z]+ ([^\s"]+)(?: [^"]*)?" (\d{3})(?:\s|$)`,
)

// ParseLine parses a single common or combined log format line. The second
// result is false if the line is not in that format or its timestamp is not a
// real instant; such lines are meant to be skipped, not treated as errors.
func ParseLine(line string) (Record, bool) {
	m := accessLogPattern.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	ts, err := time.Parse(clfTimeLayout, m[1])
	if err != nil {
		return Record{}, false
	}
	status, err := strconv.Atoi(m[3])
	if err != nil {
		return Record{}, false
	}
	return Record{
		Time:   ts.UTC(),
		Status: status,
		Path:   m[2],
	}, true
}
