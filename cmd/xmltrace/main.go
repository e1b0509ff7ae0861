// Package main implements xmltrace, a streaming XML trace log processor:
// it splits a stream of concatenated top-level XML fragments, dispatches
// each to one of a handful of processing modes (extract, range, filter,
// dedup, reorder), and re-assembles output strictly in input order.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"regexp"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/c360/xmltrace/internal/actions"
	"github.com/c360/xmltrace/internal/config"
	"github.com/c360/xmltrace/internal/metrics"
	"github.com/c360/xmltrace/internal/pipeline"
	"github.com/c360/xmltrace/internal/rangefile"
	"github.com/c360/xmltrace/internal/reorder"
	"github.com/c360/xmltrace/internal/splitter"
	"github.com/c360/xmltrace/internal/state"
	"github.com/c360/xmltrace/internal/worker"
	"github.com/c360/xmltrace/internal/xerrors"
)

const (
	Version         = "0.1.0"
	appName         = "xmltrace"
	shutdownTimeout = 5 * time.Second
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		kind, msg := xerrors.Of(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s: %s: %s\n", appName, kind, msg)
		os.Exit(1)
	}
}

func run(args []string) error {
	cli, err := parseFlags(args)
	if err != nil {
		return xerrors.WrapArgument(err, "main", "run", "parse command-line flags")
	}
	if cli.ShowHelp {
		return nil
	}
	if cli.modeCount() != 1 {
		if cli.modeCount() == 0 {
			return xerrors.WrapArgument(xerrors.ErrNoMode, "main", "run", "select a processing mode")
		}
		return xerrors.WrapArgument(xerrors.ErrTooManyModes, "main", "run", "select a processing mode")
	}

	fileCfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return err
	}
	cfg := config.Merge(config.Defaults(), fileCfg)
	cfg = config.Merge(cfg, cliOverrides(cli))

	if cfg.Workers < 1 || cfg.Workers > 256 {
		return xerrors.WrapArgument(fmt.Errorf("invalid thread count: %d", cfg.Workers), "main", "run", "validate --thread")
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)

	sources, closeSources, err := openSources(cli.Inputs)
	if err != nil {
		return err
	}
	defer closeSources()

	out, closeOut, err := openOutput(cli.OutputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	st := state.New(out)

	registry, flush, err := buildRegistry(cli, logger, st)
	if err != nil {
		return err
	}

	m, promReg := metrics.New()
	if cfg.MetricsAddr != "" {
		srv := metrics.NewServer(cfg.MetricsAddr, promReg)
		errCh := srv.Start()
		go func() {
			if err := <-errCh; err != nil {
				logger.Error("metrics server stopped unexpectedly", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Stop(ctx)
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pcfg := pipeline.Config{
		Sources:  sources,
		Workers:  cfg.Workers,
		Registry: registry,
		State:    st,
		Logger:   logger,
		FastPath: cfg.FastPath == nil || *cfg.FastPath,
		Metrics: &worker.Metrics{
			FragmentsProcessed: m.FragmentsProcessed.Inc,
			FragmentsFailed:    m.FragmentsFailed.Inc,
			ProcessingSeconds:  func(d time.Duration) { m.ProcessingSeconds.Observe(d.Seconds()) },
		},
		PromMetrics: m,
	}

	runErr := pipeline.Run(ctx, pcfg)
	if runErr == nil && flush != nil {
		if flushErr := flush(); flushErr != nil {
			runErr = flushErr
		}
	}
	if flushErr := st.Flush(); flushErr != nil && runErr == nil {
		runErr = xerrors.WrapIO(flushErr, "main", "run", "flush output")
	}
	return runErr
}

func cliOverrides(cli *CLIConfig) config.File {
	return config.File{
		Workers:     cli.Threads,
		LogLevel:    cli.LogLevel,
		LogFormat:   cli.LogFormat,
		MetricsAddr: cli.MetricsAddr,
	}
}

// buildRegistry returns the mode's action registry and, for reorder mode
// only, a flush function that must run after a successful pipeline.Run to
// drain the ReorderWindow's remaining entries in ascending-timestamp order.
func buildRegistry(cli *CLIConfig, logger *slog.Logger, st *state.State) (*actions.Registry, func() error, error) {
	switch {
	case cli.Extract != "":
		return actions.BuildExtractRegistry(splitCSV(cli.Extract), logger), nil, nil
	case cli.Range != "":
		f, err := os.Open(cli.Range)
		if err != nil {
			return nil, nil, xerrors.WrapArgument(err, "main", "buildRegistry", "open --range file")
		}
		defer f.Close()
		ranges, err := rangefile.Load(f)
		if err != nil {
			return nil, nil, xerrors.WrapArgument(err, "main", "buildRegistry", "parse --range file")
		}
		return actions.BuildRangeRegistry(ranges), nil, nil
	case cli.Filter != "":
		re, err := regexp.Compile(cli.Filter)
		if err != nil {
			return nil, nil, xerrors.WrapArgument(err, "main", "buildRegistry", "compile --filter regex")
		}
		return actions.BuildFilterRegistry(re), nil, nil
	case cli.Dedup:
		return actions.BuildDedupRegistry(), nil, nil
	case cli.Reorder != "":
		tolerance, err := strconv.ParseInt(cli.Reorder, 10, 64)
		if err != nil {
			return nil, nil, xerrors.WrapArgument(err, "main", "buildRegistry", "parse --reorder tolerance")
		}
		window, err := reorder.New(tolerance)
		if err != nil {
			return nil, nil, xerrors.WrapArgument(err, "main", "buildRegistry", "validate --reorder tolerance")
		}
		flush := func() error { return actions.FlushReorderWindow(window, st) }
		return actions.BuildReorderRegistry(window), flush, nil
	default:
		return nil, nil, xerrors.WrapArgument(xerrors.ErrNoMode, "main", "buildRegistry", "select a processing mode")
	}
}

func openSources(paths []string) ([]splitter.Source, func(), error) {
	if len(paths) == 0 {
		return []splitter.Source{{Name: "<stdin>", R: os.Stdin}}, func() {}, nil
	}
	sources := make([]splitter.Source, 0, len(paths))
	files := make([]*os.File, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			for _, opened := range files {
				_ = opened.Close()
			}
			return nil, nil, xerrors.WrapArgument(err, "main", "openSources", "open input file "+p)
		}
		files = append(files, f)
		sources = append(sources, splitter.Source{Name: p, R: f})
	}
	return sources, func() {
		for _, f := range files {
			_ = f.Close()
		}
	}, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, xerrors.WrapArgument(err, "main", "openOutput", "create output file "+path)
	}
	return f, func() { _ = f.Close() }, nil
}
