package main

import "bytes"

// SIMDParser reads lines whose first 16 bytes start with a dotted quad,
// followed by the combined log format ("ip ident user [dd/Mon/yyyy:HH:MM:SS ...").
// It checks bounds but not content: a line of another shape gives a wrong
// record rather than an error. Timestamps are seconds since midnight.
type SIMDParser struct {
	table *shuffleTable
}

// NewSIMDParser returns a parser reading digit layouts from table.
func NewSIMDParser(table *shuffleTable) *SIMDParser {
	return &SIMDParser{table: table}
}

func (p *SIMDParser) Parse(line []byte) (Record, error) {
	if len(line) < 16 {
		return Record{}, InvalidLine
	}
	ip, mask := parseIPv4Kernel((*[16]byte)(line[:16]), p.table)
	if !p.table.valid(mask) {
		return Record{}, InvalidIP
	}

	begin, ok := clockOffset(line)
	if !ok {
		return Record{}, InvalidLine
	}
	secs := parseClockKernel((*[8]byte)(line[begin : begin+8]))
	return Record{IP: IPv4(ip), Timestamp: int64(secs)}, nil
}

// clockOffset finds "HH:MM:SS": the first ':' after the space that ends the
// ident field, skipping the shortest possible address.
func clockOffset(line []byte) (int, bool) {
	const minIPLen = 7
	first := bytes.IndexByte(line[minIPLen:], ' ')
	if first < 0 {
		return 0, false
	}
	first += minIPLen
	if first+3 > len(line) {
		return 0, false
	}
	second := bytes.IndexByte(line[first+3:], ' ')
	if second < 0 {
		return 0, false
	}
	second += first + 3
	colon := bytes.IndexByte(line[second:], ':')
	if colon < 0 {
		return 0, false
	}
	begin := second + colon + 1
	if begin+8 > len(line) {
		return 0, false
	}
	return begin, true
}
