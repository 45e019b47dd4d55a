// Command triage sweeps an access log for the most frequent (status, path)
// pairs in a time window. Run `triage --help` for the flags.
package main

import (
	"os"

	"github.com/bitfield/triage"
)

func main() {
	os.Exit(triage.Main())
}
