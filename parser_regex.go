package main

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	ipGroup = "ip"
	dtGroup = "DT"

	defaultLogRegex   = `^(?P<ip>\d+\.\d+\.\d+\.\d+) - [^ ]+ \[(?P<DT>[^\]]+)\]`
	defaultDateFormat = "02/Jan/2006:15:04:05 -0700"
)

var (
	ErrIPGroupExpected    = errors.New("log_regex must contain (?P<ip> ... ) group for IP address")
	ErrDTGroupExpected    = errors.New("log_regex must contain (?P<DT> ... ) group for datetime")
	ErrUncompilableRegex  = errors.New("failed to compile log_regex")
	ErrYearlessDateFormat = errors.New("date_format has a month or day but no year")
	errUnsupportedPattern = errors.New("unsupported pattern")
)

// RegexParser extracts the ip and DT named groups of a user supplied
// pattern. DT is read with a Go time layout; a layout without a calendar
// date gives seconds since midnight, otherwise Unix seconds.
type RegexParser struct {
	re         *regexp.Regexp
	ipIndex    int
	dtIndex    int
	dateFormat string
}

// NewRegexParser checks that pattern names both groups, then compiles it.
func NewRegexParser(pattern, dateFormat string) (*RegexParser, error) {
	if !hasGroup(pattern, ipGroup) {
		return nil, ErrIPGroupExpected
	}
	if !hasGroup(pattern, dtGroup) {
		return nil, ErrDTGroupExpected
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(ErrUncompilableRegex, err.Error())
	}
	if err = checkDateFormat(dateFormat); err != nil {
		return nil, err
	}
	p := &RegexParser{
		re:         re,
		ipIndex:    re.SubexpIndex(ipGroup),
		dtIndex:    re.SubexpIndex(dtGroup),
		dateFormat: dateFormat,
	}
	if p.ipIndex < 0 || p.dtIndex < 0 {
		// the group text was there but not as a capture, e.g. escaped
		return nil, errors.Wrapf(errUnsupportedPattern, "%q", pattern)
	}
	return p, nil
}

// checkDateFormat rejects layouts carrying a date without a year: they
// would parse to year 0 and be read as seconds since midnight.
func checkDateFormat(layout string) error {
	ref := time.Date(2006, time.July, 15, 10, 11, 12, 0, time.UTC)
	t, err := time.Parse(layout, ref.Format(layout))
	if err != nil {
		// not round-trippable, bad values surface as InvalidDateTime
		return nil
	}
	if t.Year() == 0 && (t.Month() != time.January || t.Day() != 1) {
		return errors.Wrapf(ErrYearlessDateFormat, "%q", layout)
	}
	return nil
}

func hasGroup(pattern, name string) bool {
	return strings.Contains(pattern, "(?P<"+name+">") || strings.Contains(pattern, "(?<"+name+">")
}

func (p *RegexParser) Parse(line []byte) (Record, error) {
	m := p.re.FindSubmatchIndex(line)
	if m == nil {
		return Record{}, InvalidLine
	}
	dt, ok := group(line, m, p.dtIndex)
	if !ok {
		return Record{}, InvalidLine
	}
	t, err := time.Parse(p.dateFormat, dt)
	if err != nil {
		return Record{}, InvalidDateTime
	}
	rawIP, ok := group(line, m, p.ipIndex)
	if !ok {
		return Record{}, InvalidLine
	}
	ip, ok := parseIPv4(rawIP)
	if !ok {
		return Record{}, InvalidIP
	}
	return Record{IP: ip, Timestamp: timestamp(t)}, nil
}

func group(line []byte, m []int, i int) (string, bool) {
	if m[2*i] < 0 {
		return "", false
	}
	return string(line[m[2*i]:m[2*i+1]]), true
}

// timestamp is seconds since midnight when t carries no date (year 0),
// Unix seconds otherwise.
func timestamp(t time.Time) int64 {
	if t.Year() == 0 {
		h, m, s := t.Clock()
		return int64(h*3600 + m*60 + s)
	}
	return t.Unix()
}
