package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type runStats struct {
	Lines       uint64
	ParseErrors [Unknown + 1]uint64
	IPs         int
	Banned      int
	Whitelisted int
	Elapsed     time.Duration
}

func (s *runStats) failed(err error) {
	s.ParseErrors[asParseError(err)]++
}

func (s *runStats) totalErrors() uint64 {
	var n uint64
	for _, c := range s.ParseErrors {
		n += c
	}
	return n
}

func (s *runStats) linesPerSecond() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Lines) / s.Elapsed.Seconds()
}

func (s *runStats) log(logger zerolog.Logger) {
	logger.Info().
		Int64("elapsed_ms", s.Elapsed.Milliseconds()).
		Uint64("lines", s.Lines).
		Uint64("invalid_line", s.ParseErrors[InvalidLine]).
		Uint64("invalid_ip", s.ParseErrors[InvalidIP]).
		Uint64("invalid_datetime", s.ParseErrors[InvalidDateTime]).
		Float64("lines_per_sec", s.linesPerSecond()).
		Int("whitelisted", s.Whitelisted).
		Msgf("%s lines parsed (%s errors) in %s, %s lines/s, banned = %d/%d",
			humanize.Comma(int64(s.Lines)),
			humanize.Comma(int64(s.totalErrors())),
			s.Elapsed.Round(time.Millisecond),
			humanize.SIWithDigits(s.linesPerSecond(), 1, ""),
			s.Banned, s.IPs)
}

// writeTextfile writes the stats in the Prometheus text format, for the
// node_exporter textfile collector.
func (s *runStats) writeTextfile(path string) error {
	reg := prometheus.NewRegistry()

	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logbanisher", Name: "lines_total", Help: "Log lines read.",
	})
	parseErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logbanisher", Name: "parse_errors_total", Help: "Lines skipped, by reason.",
	}, []string{"reason"})
	ips := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logbanisher", Name: "ips", Help: "Distinct IPs seen.",
	})
	banned := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logbanisher", Name: "banned_ips", Help: "IPs banned and not whitelisted.",
	})
	whitelisted := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logbanisher", Name: "whitelisted_ips", Help: "IPs whitelisted.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logbanisher", Name: "run_duration_seconds", Help: "Time spent reading and analyzing.",
	})
	reg.MustRegister(lines, parseErrors, ips, banned, whitelisted, duration)

	lines.Add(float64(s.Lines))
	for kind, n := range s.ParseErrors {
		parseErrors.WithLabelValues(ParseError(kind).Error()).Add(float64(n))
	}
	ips.Set(float64(s.IPs))
	banned.Set(float64(s.Banned))
	whitelisted.Set(float64(s.Whitelisted))
	duration.Set(s.Elapsed.Seconds())

	return prometheus.WriteToTextfile(path, reg)
}
