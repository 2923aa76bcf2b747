package main

// RingBanBuffer keeps the timestamps of the last k requests of one IP.
// cursor always points at the slot written next, which after k writes holds
// the timestamp from exactly k writes ago.
type RingBanBuffer struct {
	slots       []int64
	writes      int // saturates at len(slots)
	cursor      int
	Banned      bool
	Whitelisted bool
}

func newRingBanBuffer(k int) *RingBanBuffer {
	return &RingBanBuffer{slots: make([]int64, k)}
}

// AddQuery records ts. Once k queries have been recorded it returns
// ts minus the timestamp of the query k-1 positions back, i.e. the width of
// the window holding the last k queries. Before that ok is false.
func (b *RingBanBuffer) AddQuery(ts int64) (delta int64, ok bool) {
	b.slots[b.cursor] = ts
	b.cursor++
	if b.cursor == len(b.slots) {
		b.cursor = 0
	}
	if b.writes < len(b.slots) {
		b.writes++
		if b.writes < len(b.slots) {
			return 0, false
		}
	}
	return ts - b.slots[b.cursor], true
}
