package triage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/shell"
)

// Version is reported by --version.
const Version = "0.3.0"

// Exit codes returned by Run.
const (
	ExitOK        = 0
	ExitNoMatches = 1
	ExitUsage     = 2
	ExitIO        = 3
)

// optsEnvVar names the environment variable holding default arguments. They
// are split with shell quoting rules and placed before the command line, so
// explicit flags override them.
const optsEnvVar = "TRIAGE_OPTS"

const usageText = `Usage: triage [flags] FILE

Count requests per (status, path) in an access log and print the top
offenders. FILE may be plain text, gzip-compressed (.gz), or - for stdin.

Flags:
`

// Env is the outside world as seen by Run.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Now    func() time.Time
	Getenv func(string) string
}

// Main runs the triage command with the process's arguments and standard
// streams, and returns the exit code.
func Main() int {
	return Run(os.Args[1:], Env{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Now:    time.Now,
		Getenv: os.Getenv,
	})
}

type options struct {
	file    string
	minutes int
	from    string
	to      string
	status  string
	top     int
	verbose bool
	version bool

	fs *pflag.FlagSet
}

// usageError is an invalid command line. It is always reported before any
// file is opened.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...interface{}) error {
	return usageError{fmt.Errorf(format, args...)}
}

// Run parses args, scans the named log, and writes the ranking to
// env.Stdout. It returns ExitNoMatches if nothing survived the filter.
func Run(args []string, env Env) int {
	logger := log.New(env.Stderr, "triage: ", 0)
	if env.Getenv == nil {
		env.Getenv = func(string) string { return "" }
	}
	if env.Now == nil {
		env.Now = time.Now
	}
	opts := &options{}
	fs := opts.flagSet(env.Stderr)
	err := opts.parse(args, env.Getenv)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		logger.Print(err)
		fs.Usage()
		return ExitUsage
	}
	if opts.version {
		fmt.Fprintln(env.Stdout, "triage", Version)
		return ExitOK
	}
	filter, err := opts.filter(env.Now().UTC())
	if err != nil {
		logger.Print(err)
		return ExitUsage
	}
	if opts.verbose {
		logger.Printf("window %s to %s", filter.From.Format(time.RFC3339), filter.To.Format(time.RFC3339))
	}
	var p *Pipe
	if opts.file == "-" {
		p = NewPipe().WithReader(env.Stdin)
	} else {
		p = File(opts.file)
	}
	tally, stats, err := p.TallyStats(filter)
	if err != nil {
		logger.Print(err)
		return ExitIO
	}
	if opts.verbose {
		logger.Printf("%s: %d lines, %d malformed, %d outside filter, %d matched",
			opts.file, stats.Lines, stats.Malformed, stats.Filtered, stats.Matched)
	}
	if len(tally) == 0 {
		fmt.Fprintln(env.Stderr, "No matches found.")
		return ExitNoMatches
	}
	err = Render(env.Stdout, tally, opts.top)
	if err != nil {
		logger.Print(err)
		return ExitIO
	}
	return ExitOK
}

func (o *options) flagSet(stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("triage", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SortFlags = false
	fs.IntVarP(&o.minutes, "minutes", "m", 15, "sliding window: the last N minutes up to now (conflicts with --from)")
	fs.StringVar(&o.from, "from", "", "start of window, UTC: YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS'")
	fs.StringVar(&o.to, "to", "", "end of window, same formats (default now; requires --from)")
	fs.StringVarP(&o.status, "status", "s", "", "only count these comma-separated status codes, e.g. 499,321")
	fs.IntVarP(&o.top, "top", "n", 10, "number of rows to display")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log a scan summary to stderr")
	fs.BoolVar(&o.version, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fmt.Fprint(stderr, fs.FlagUsages())
	}
	o.fs = fs
	return fs
}

func (o *options) parse(args []string, getenv func(string) string) error {
	if extra := getenv(optsEnvVar); extra != "" {
		fields, err := shell.Fields(extra, getenv)
		if err != nil {
			return usagef("%s: %v", optsEnvVar, err)
		}
		args = append(fields, args...)
	}
	err := o.fs.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		return err
	}
	if err != nil {
		return usageError{err}
	}
	if o.version {
		return nil
	}
	switch o.fs.NArg() {
	case 0:
		return usagef("missing log file argument")
	case 1:
		o.file = o.fs.Arg(0)
	default:
		return usagef("expected one log file, got %d", o.fs.NArg())
	}
	if o.top <= 0 {
		return usagef("--top must be positive, got %d", o.top)
	}
	return nil
}

// filter resolves the time window and status set relative to now.
func (o *options) filter(now time.Time) (Filter, error) {
	var f Filter
	fromSet, toSet := o.fs.Changed("from"), o.fs.Changed("to")
	switch {
	case fromSet && o.fs.Changed("minutes"):
		return f, usagef("--minutes and --from are mutually exclusive")
	case toSet && !fromSet:
		return f, usagef("--to requires --from")
	case fromSet:
		from, err := parseDate(o.from, false)
		if err != nil {
			return f, err
		}
		to := now
		if toSet {
			to, err = parseDate(o.to, true)
			if err != nil {
				return f, err
			}
		}
		if to.Before(from) {
			return f, usagef("--to %q is before --from %q", o.to, o.from)
		}
		f.From, f.To = &from, &to
	default:
		if o.minutes <= 0 {
			return f, usagef("--minutes must be positive, got %d", o.minutes)
		}
		// beyond what a Duration can hold, the window is as wide as it gets
		window := time.Duration(math.MaxInt64)
		if int64(o.minutes) < math.MaxInt64/int64(time.Minute) {
			window = time.Duration(o.minutes) * time.Minute
		}
		from := now.Add(-window)
		f.From, f.To = &from, &now
	}
	if o.fs.Changed("status") {
		statuses, err := parseStatuses(o.status)
		if err != nil {
			return f, err
		}
		f.Statuses = statuses
	}
	return f, nil
}

// parseDate reads a UTC date or date-time. A bare date given as the end of a
// window covers that whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, usagef("invalid date %q: want YYYY-MM-DD or 'YYYY-MM-DD HH:MM:SS'", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func parseStatuses(s string) (map[int]bool, error) {
	set := map[int]bool{}
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		code, err := strconv.Atoi(field)
		if err != nil {
			return nil, usagef("invalid status code %q", field)
		}
		set[code] = true
	}
	if len(set) == 0 {
		return nil, usagef("--status %q lists no status codes", s)
	}
	return set, nil
}
