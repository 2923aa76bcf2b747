package main

import (
	"encoding/binary"
	"net/netip"
	"strconv"

	"github.com/pkg/errors"
)

// IPv4 is an IPv4 address, first octet in the most significant byte.
type IPv4 uint32

// Addr returns ip as a netip.Addr
func (ip IPv4) Addr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(ip))
	return netip.AddrFrom4(b)
}

func (ip IPv4) String() string {
	b := make([]byte, 0, 15)
	for shift := 24; shift >= 0; shift -= 8 {
		b = strconv.AppendUint(b, uint64(ip>>uint(shift))&0xff, 10)
		if shift > 0 {
			b = append(b, '.')
		}
	}
	return string(b)
}

// parseIPv4 parses a dotted quad, IPv4-mapped IPv6 addresses are unmapped.
func parseIPv4(s string) (IPv4, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return 0, false
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return IPv4(binary.BigEndian.Uint32(b[:])), true
}

// Record is what a LineParser extracts from a log line.
// Timestamp is either Unix epoch seconds or seconds since midnight,
// depending on whether the parser sees a calendar date.
type Record struct {
	IP        IPv4
	Timestamp int64
}

// ParseError is the reason a line was rejected. Per-line errors are not fatal.
type ParseError uint8

const (
	InvalidLine ParseError = iota
	InvalidIP
	InvalidDateTime
	Unknown
)

var parseErrorNames = [...]string{
	InvalidLine:     "invalid line",
	InvalidIP:       "invalid ip",
	InvalidDateTime: "invalid datetime",
	Unknown:         "unknown parse error",
}

func (e ParseError) Error() string {
	if int(e) < len(parseErrorNames) {
		return parseErrorNames[e]
	}
	return parseErrorNames[Unknown]
}

// LineParser extracts a Record from one raw log line (newline stripped).
type LineParser interface {
	Parse(line []byte) (Record, error)
}

const (
	parserRegex     = "regex"
	parserAutomaton = "automaton"
	parserSIMD      = "simd"
)

// newLineParser returns the backend selected in conf
func newLineParser(conf Config) (LineParser, error) {
	switch conf.Parser {
	case parserRegex:
		return NewRegexParser(conf.LogRegex, conf.DateFormat)
	case parserAutomaton:
		return Automaton{}, nil
	case parserSIMD:
		return NewSIMDParser(loadShuffleTable()), nil
	default:
		return nil, errors.Errorf("unknown parser %q", conf.Parser)
	}
}

// asParseError maps any error to a ParseError, Unknown if it is not one.
func asParseError(err error) ParseError {
	var pe ParseError
	if errors.As(err, &pe) && pe <= Unknown {
		return pe
	}
	return Unknown
}
