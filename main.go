package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var appVersion string

type options struct {
	dbFile      string
	iptables    bool
	banDuration time.Duration
	metricsFile string
	systemd     bool
	logFile     string
	parser      string
	reader      string
	showVersion bool
}

// main
func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "logbanisher [config file]",
		Short: "Find IPs issuing too many requests in a web server access log",
		Long: "logbanisher reads an access log once and prints, one per line, the IPs that made\n" +
			"at least `requests` requests within `period` seconds.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), args, opts, newLogger(cmd.ErrOrStderr(), opts.systemd))
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.dbFile, "db", "", "badger database to export bans to (disabled if empty)")
	flags.BoolVar(&opts.iptables, "iptables", false, "add an iptables DROP rule for each exported ban (requires --db and root)")
	flags.DurationVar(&opts.banDuration, "ban-duration", 0, "lifetime of exported bans (default: ban_duration from config)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write run statistics for the node_exporter textfile collector")
	flags.BoolVar(&opts.systemd, "systemd", false, "started by systemd")
	flags.StringVar(&opts.logFile, "log-file", "", "override log_file")
	flags.StringVar(&opts.parser, "parser", "", "override parser (regex, automaton, simd)")
	flags.StringVar(&opts.reader, "reader", "", "override reader (buffered, mmap, journal)")
	flags.BoolVar(&opts.showVersion, "version", false, "show version")

	if err := rootCmd.Execute(); err != nil {
		logger := newLogger(os.Stderr, opts.systemd)
		logger.Error().Msg(err.Error())
		os.Exit(1)
	}
}

// newLogger writes human readable diagnostics to w, without timestamps
// under systemd since journald adds its own.
func newLogger(w io.Writer, systemd bool) zerolog.Logger {
	if systemd {
		return zerolog.New(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = w
			cw.NoColor = true
			cw.PartsExclude = []string{zerolog.TimestampFieldName}
		}))
	}
	return zerolog.New(zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.TimeFormat = time.TimeOnly
	})).With().Timestamp().Logger()
}

func run(stdout io.Writer, args []string, opts *options, logger zerolog.Logger) error {
	if opts.showVersion {
		fmt.Fprintf(stdout, "logbanisher v%s\n", appVersion)
		return nil
	}

	configFile := "config.toml"
	if len(args) > 0 {
		configFile = args[0]
	}
	logger.Info().Str("version", appVersion).Str("config", configFile).Msg("starting logbanisher")

	conf, err := loadConfig(configFile)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	opts.override(&conf)
	if err = conf.validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	parser, err := newLineParser(conf)
	if err != nil {
		return errors.Wrap(err, "failed to init parser")
	}
	token, err := dailyToken(time.Now(), conf.Secret, conf.TokenHash)
	if err != nil {
		return err
	}

	banisher, err := opts.openBanisher(logger)
	if err != nil {
		return err
	}
	if banisher != nil {
		defer banisher.Close()
	}

	src, err := openLineSource(conf)
	if err != nil {
		return err
	}
	defer src.Close()

	logger.Debug().Str("parser", conf.Parser).Str("reader", conf.Reader).Bool("ssse3", hasSSSE3).Msg("ready")

	tracker := NewBanTracker(conf.rule(), []byte(token), conf.whitelist)
	stats, err := analyze(src, parser, tracker)
	if err != nil {
		return err
	}

	banned := tracker.Banned()
	w := bufio.NewWriter(stdout)
	for _, ip := range banned {
		fmt.Fprintln(w, ip)
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "failed to write banned IPs")
	}
	stats.log(logger)

	if banisher != nil {
		duration := opts.banDuration
		if duration <= 0 {
			duration = time.Duration(conf.BanDuration) * time.Second
		}
		now := time.Now()
		removed, err := banisher.Prune(now)
		if err != nil {
			return err
		}
		added, err := banisher.Export(banned, now, duration, conf.rule().Name)
		if err != nil {
			return err
		}
		logger.Info().Int("added", added).Int("expired", removed).Str("db", opts.dbFile).Msg("bans exported")
	}

	if opts.metricsFile != "" {
		if err = stats.writeTextfile(opts.metricsFile); err != nil {
			return errors.Wrap(err, "failed to write metrics file")
		}
	}
	return nil
}

func (opts *options) override(conf *Config) {
	if opts.logFile != "" {
		conf.LogFile = opts.logFile
	}
	if opts.parser != "" {
		conf.Parser = opts.parser
	}
	if opts.reader != "" {
		conf.Reader = opts.reader
	}
}

func (opts *options) openBanisher(logger zerolog.Logger) (*Banisher, error) {
	if opts.dbFile == "" {
		if opts.iptables {
			return nil, errors.New("--iptables requires --db")
		}
		return nil, nil
	}
	var fw firewall
	if opts.iptables {
		root, err := isRoot()
		if err != nil {
			return nil, err
		}
		if !root {
			return nil, errors.New("root privileges are required for --iptables")
		}
		if fw, err = newIPTables(); err != nil {
			return nil, err
		}
	}
	return NewBanisher(opts.dbFile, fw, logger)
}

// analyze feeds every line of src through p into t. Lines that fail to
// parse are counted and skipped.
func analyze(src LineSource, p LineParser, t *BanTracker) (stats runStats, err error) {
	start := time.Now()
	for {
		line, ok := src.Next()
		if !ok {
			break
		}
		stats.Lines++
		rec, err := p.Parse(line)
		if err != nil {
			stats.failed(err)
			continue
		}
		t.Update(rec, line)
	}
	stats.Elapsed = time.Since(start)
	stats.IPs = t.Len()
	stats.Banned = len(t.Banned())
	stats.Whitelisted = t.Whitelisted()
	if err = src.Err(); err != nil {
		return stats, errors.Wrap(err, "failed to read log")
	}
	return stats, nil
}
