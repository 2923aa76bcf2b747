package main

import "sync"

// zeroLane is a shuffle index with the high bit set: PSHUFB writes 0 there.
const zeroLane = 0xff

// shuffleTable maps the 16-bit "not a digit" mask of a 16-byte window that
// starts with a dotted quad to the PSHUFB control compacting its digits.
// Group i lands in lane 3-i, least significant digit in the lane's byte 0.
type shuffleTable [1 << 16][16]byte

// loadShuffleTable builds the table on first use; it is read-only afterwards.
var loadShuffleTable = sync.OnceValue(buildShuffleTable)

func buildShuffleTable() *shuffleTable {
	t := new(shuffleTable)
	var lens [4]int
	for lens[0] = 1; lens[0] <= 3; lens[0]++ {
		for lens[1] = 1; lens[1] <= 3; lens[1]++ {
			for lens[2] = 1; lens[2] <= 3; lens[2]++ {
				for lens[3] = 1; lens[3] <= 3; lens[3]++ {
					fillLayout(t, lens)
				}
			}
		}
	}
	return t
}

// fillLayout stores the entry for one set of group lengths under every
// possible arrangement of the bytes trailing the address.
func fillLayout(t *shuffleTable, lens [4]int) {
	var shuf [16]byte
	for i := range shuf {
		shuf[i] = zeroLane
	}
	mask := 0
	pos := 0
	for i, n := range lens {
		for j := 0; j < n; j++ {
			shuf[(3-i)*4+(n-1-j)] = byte(pos)
			pos++
		}
		// separator: '.', or whatever ends the fourth group
		mask |= 1 << pos
		pos++
	}
	used := pos
	for rest := 0; rest < 1<<(16-used); rest++ {
		t[mask|rest<<used] = shuf
	}
}

// valid reports whether mask is one a dotted quad can produce. Byte 0 of a
// populated entry is the last digit of the fourth group, never position 0.
func (t *shuffleTable) valid(mask uint16) bool {
	return t[mask][0] != 0
}
