package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// CLIConfig holds every command-line setting, before layering with
// internal/config's optional file and hardcoded defaults.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	MetricsAddr string
	Threads     int
	OutputPath  string

	Extract string
	Range   string
	Filter  string
	Dedup   bool
	Reorder string

	ShowHelp bool

	Inputs []string
}

func parseFlags(args []string) (*CLIConfig, error) {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	cfg := &CLIConfig{}

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to optional YAML config file")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format: json, text (default json)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", "", "If set, serve Prometheus /metrics on this host:port for the run's duration")
	fs.IntVar(&cfg.Threads, "j", 0, "Worker count, 1..256 (default 16)")
	fs.IntVar(&cfg.Threads, "thread", 0, "Worker count, 1..256 (default 16)")
	fs.StringVar(&cfg.OutputPath, "o", "", "Output file path (default standard output)")
	fs.StringVar(&cfg.OutputPath, "output", "", "Output file path (default standard output)")

	fs.StringVar(&cfg.Extract, "extract", "", "Comma-separated list of extractor names")
	fs.StringVar(&cfg.Range, "range", "", "Path to a [start, end] timestamp range file")
	fs.StringVar(&cfg.Filter, "filter", "", "RE2 regex matched against each fragment's type_id")
	fs.BoolVar(&cfg.Dedup, "dedup", false, "Emit a fragment iff its timestamp is >= every previously emitted one")
	fs.StringVar(&cfg.Reorder, "reorder", "", "Reorder tolerance in microseconds")

	var help1, help2 bool
	fs.BoolVar(&help1, "h", false, "Show help and exit")
	fs.BoolVar(&help2, "help", false, "Show help and exit")

	fs.Usage = func() { printHelp(fs) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.ShowHelp = help1 || help2
	if cfg.ShowHelp {
		printHelp(fs)
	}
	cfg.Inputs = fs.Args()
	return cfg, nil
}

// modeCount returns how many of the five mutually exclusive mode flags were
// set, used to enforce "exactly one" at startup.
func (c *CLIConfig) modeCount() int {
	n := 0
	if c.Extract != "" {
		n++
	}
	if c.Range != "" {
		n++
	}
	if c.Filter != "" {
		n++
	}
	if c.Dedup {
		n++
	}
	if c.Reorder != "" {
		n++
	}
	return n
}

func printHelp(fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(os.Stderr, `%s - streaming XML trace log processor

Usage: %s [options] [input-file ...]

With no input files, reads from standard input.

Exactly one mode flag is required: --extract, --range, --filter, --dedup, --reorder.

Options:
`, appName, os.Args[0])
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  %s --filter '^LTE_RRC' trace.xml
  %s --extract rrc_ota,mac_rach_attempt -o out.txt trace1.xml trace2.xml
  %s --reorder 1000000 < trace.xml

Version: %s
`, os.Args[0], os.Args[0], os.Args[0], Version)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
