// Package cmd wires up the CLI flags and dispatches to send mode.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"netsend/config"
	"netsend/internal/core"
	"netsend/target"
	"netsend/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X netsend/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// stdout receives --version and --dry-run output.
var stdout io.Writer = os.Stdout //nolint:gochecknoglobals

// Execute parses args and runs netsend.
func Execute(ctx context.Context, args []string) error {
	cfg := config.Default()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("netsend", flag.ContinueOnError)

	// ── destination ──────────────────────────────────────────────
	udp := cfg.UDP()
	fs.BoolVarP(&udp, "udp", "u", udp, "Send UDP datagrams instead of a TCP stream")
	fs.BoolVarP(&cfg.IPv6, "ipv6", "6", cfg.IPv6, "Use IPv6")

	resolveSec := int(cfg.ResolveTimeout / time.Second)
	fs.IntVar(&resolveSec, "resolve-timeout", resolveSec, "Name resolution timeout in seconds (0 = none)")

	// ── sending ──────────────────────────────────────────────────
	fs.BoolVarP(&cfg.Reopen, "reopen", "r", cfg.Reopen, "Reopen and resend once after a failed send")
	fs.IntVar(&cfg.ReopenAttempts, "reopen-attempts", cfg.ReopenAttempts, "Opens tried, with backoff, per failed send (with -r)")
	fs.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Concurrent senders sharing the connection")
	fs.IntVar(&cfg.MaxMessageSize, "max-size", cfg.MaxMessageSize, "Largest message read from stdin, in bytes")

	delim := strconv.QuoteRune(rune(cfg.Delimiter))
	delim = delim[1 : len(delim)-1]
	fs.StringVarP(&delim, "delimiter", "d", delim, `Message delimiter for stdin (a byte, or \n \r \t \0)`)

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print metrics as JSON to stderr on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || (len(args) == 0 && cfg.Destination == "") {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "netsend %s\n", version)
		return nil
	}

	if fs.Changed("udp") {
		cfg.Protocol = "tcp"
		if udp {
			cfg.Protocol = "udp"
		}
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}
	cfg.ResolveTimeout = time.Duration(resolveSec) * time.Second
	if fs.Changed("delimiter") {
		d, err := config.ParseDelimiter(delim)
		if err != nil {
			return fmt.Errorf("delimiter: %w", err)
		}
		cfg.Delimiter = d
	}

	parsePositional(cfg, fs.Args())

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.DryRun {
		return printPlan(cfg)
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	if len(cfg.Messages) == 0 && term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Info("reading messages from the terminal, one per line; Ctrl-D to finish")
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// parsePositional fills host, port and messages.  Missing positionals
// keep whatever the environment supplied; Validate reports the rest.
func parsePositional(cfg *config.Config, remaining []string) {
	if len(remaining) > 0 {
		cfg.Destination = remaining[0]
	}
	if len(remaining) > 1 {
		cfg.Port = remaining[1]
	}
	if len(remaining) > 2 {
		cfg.Messages = remaining[2:]
	}
}

func printPlan(cfg *config.Config) error {
	v, err := target.ParseVariant(cfg.Protocol, cfg.IPv6)
	if err != nil {
		return err
	}
	input := "stdin"
	if len(cfg.Messages) > 0 {
		input = "arguments"
	}
	fmt.Fprintf(stdout, "netsend: %s over %s from %s (workers %d, max-size %d, delimiter %q, reopen %t)\n",
		util.FormatAddr(cfg.Destination, cfg.Port), v, input,
		cfg.Workers, cfg.MaxMessageSize, cfg.Delimiter, cfg.Reopen)
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `netsend – send messages to one network destination v%s

Usage:
  netsend [options] <host> <port> [message ...]

With message arguments they are joined by spaces and sent once.
Otherwise stdin is split on the delimiter and every message is sent.

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  NETSEND_HOST NETSEND_PORT NETSEND_PROTOCOL NETSEND_IPV6 NETSEND_REOPEN
  NETSEND_REOPEN_ATTEMPTS NETSEND_WORKERS NETSEND_MAX_SIZE NETSEND_DELIMITER NETSEND_RESOLVE_TIMEOUT
  NETSEND_VERBOSE NETSEND_STATS       (flags take precedence)

Examples:
  netsend -u logs.example.com 514 "<13>hello"     One syslog datagram
  tail -F app.log | netsend -r collector 6000     Stream lines over TCP
  netsend -6 -j 4 --stats ::1 9000 < events.txt   Four senders over IPv6
`)
}
