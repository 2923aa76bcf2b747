package main

import (
	"bytes"
	"slices"
)

// BanTracker owns one RingBanBuffer per IP seen during the run. Entries are
// never evicted, so memory grows with the number of distinct IPs only.
// It is not safe for concurrent use.
type BanTracker struct {
	rule    banRule
	token   []byte
	static  map[IPv4]struct{}
	buffers map[IPv4]*RingBanBuffer
}

// NewBanTracker returns a tracker applying rule. Lines containing token
// whitelist their IP; an empty token disables that. IPs in static start
// whitelisted.
func NewBanTracker(rule banRule, token []byte, static []IPv4) *BanTracker {
	t := &BanTracker{
		rule:    rule,
		token:   token,
		static:  make(map[IPv4]struct{}, len(static)),
		buffers: make(map[IPv4]*RingBanBuffer),
	}
	for _, ip := range static {
		t.static[ip] = struct{}{}
	}
	return t
}

// Update accounts for one parsed line. line is the raw text rec came from.
func (t *BanTracker) Update(rec Record, line []byte) {
	buf, ok := t.buffers[rec.IP]
	if !ok {
		buf = newRingBanBuffer(t.rule.Requests)
		_, buf.Whitelisted = t.static[rec.IP]
		t.buffers[rec.IP] = buf
	}

	// a token line is left out of the window entirely
	if len(t.token) > 0 && bytes.Contains(line, t.token) {
		buf.Whitelisted = true
		return
	}
	if buf.Banned {
		return
	}
	if delta, ok := buf.AddQuery(rec.Timestamp); ok && t.rule.exceeded(delta) {
		buf.Banned = true
	}
}

// Banned returns the banned and not whitelisted IPs in ascending order.
func (t *BanTracker) Banned() []IPv4 {
	var ips []IPv4
	for ip, buf := range t.buffers {
		if buf.Banned && !buf.Whitelisted {
			ips = append(ips, ip)
		}
	}
	slices.Sort(ips)
	return ips
}

// Len returns the number of distinct IPs seen.
func (t *BanTracker) Len() int {
	return len(t.buffers)
}

// Whitelisted returns the number of whitelisted IPs seen.
func (t *BanTracker) Whitelisted() int {
	n := 0
	for _, buf := range t.buffers {
		if buf.Whitelisted {
			n++
		}
	}
	return n
}
