package triage

import (
	"fmt"
	"io"
	"strings"
)

const tableHeader = "| Rank | Status | Path | Hits |\n|---:|---:|---|---:|\n"

// Render writes the top n entries of t to w as a Markdown table with the
// columns Rank, Status, Path and Hits. An empty tally produces only the header.
func Render(w io.Writer, t Tally, n int) error {
	var b strings.Builder
	b.WriteString(tableHeader)
	for _, e := range t.Top(n) {
		fmt.Fprintf(&b, "| %d | %d | %s | %d |\n", e.Rank, e.Status, escapeCell(e.Path), e.Hits)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// escapeCell keeps a literal '|' in a path from splitting the table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
