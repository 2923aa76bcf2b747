package main

// Automaton is a single-pass byte scanner for the combined log format.
// Digits are not validated: stray bytes yield a meaningless but successful
// record. A line that ends before the address or the clock field does not
// parse. Timestamps are seconds since midnight.
type Automaton struct{}

func (Automaton) Parse(line []byte) (Record, error) {
	var ip, group uint32
	i := 0
	for ; i < len(line); i++ {
		c := line[i]
		if c == ' ' {
			break
		}
		if c == '.' {
			ip = ip<<8 + group
			group = 0
			continue
		}
		group = group*10 + uint32(c-'0')
	}
	if i == len(line) {
		return Record{}, InvalidLine
	}
	ip = ip<<8 + group

	// skip the space and "- -", then the rest of the user field, then up to
	// the ':' closing the date
	i += 1 + 3
	for i < len(line) && line[i] != ' ' {
		i++
	}
	for i < len(line) && line[i] != ':' {
		i++
	}
	if i >= len(line) {
		return Record{}, InvalidLine
	}

	var secs, part uint32
	for ; i < len(line); i++ {
		c := line[i]
		if c == ' ' {
			break
		}
		if c == ':' {
			secs = secs*60 + part
			part = 0
			continue
		}
		part = part*10 + uint32(c-'0')
	}
	secs = secs*60 + part
	return Record{IP: IPv4(ip), Timestamp: int64(secs)}, nil
}
