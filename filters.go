package triage

import (
	"bufio"
	"bytes"
	"strings"
)

// maxLineLength bounds a single log line. Access logs with very long query
// strings or user agents routinely exceed bufio's 64KiB default.
const maxLineLength = 1024 * 1024

// EachLine calls the specified function for each line of input, passing it the
// line with leading and trailing whitespace removed. A line longer than
// maxLineLength is passed as an empty string and the scan carries on. The pipe
// is closed once the input is exhausted, or on the first read error, which
// also sets the pipe's error status. EachLine returns that error status.
func (p *Pipe) EachLine(process func(string)) error {
	if p == nil || p.Error() != nil {
		return p.Error()
	}
	defer p.Close()
	scanner := bufio.NewScanner(p.Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	scanner.Split(scanLinesDroppingLong())
	for scanner.Scan() {
		process(strings.TrimSpace(scanner.Text()))
	}
	err := scanner.Err()
	if err != nil {
		p.SetError(err)
	}
	return p.Error()
}

// scanLinesDroppingLong is bufio.ScanLines, except that a line which fills the
// whole buffer is discarded up to its newline and yielded as an empty token,
// instead of failing with bufio.ErrTooLong.
func scanLinesDroppingLong() bufio.SplitFunc {
	var dropping bool
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if !dropping {
			advance, token, err := bufio.ScanLines(data, atEOF)
			if advance > 0 || token != nil || err != nil || len(data) < maxLineLength {
				return advance, token, err
			}
			dropping = true
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			dropping = false
			return i + 1, []byte{}, nil
		}
		if atEOF {
			dropping = false
			return len(data), []byte{}, nil
		}
		return len(data), nil, nil
	}
}
