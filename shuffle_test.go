package main

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleTablePopulated(t *testing.T) {
	table := loadShuffleTable()
	require.Same(t, table, loadShuffleTable(), "table must be built once")

	populated := 0
	for mask := range table {
		if table.valid(uint16(mask)) {
			populated++
		}
	}
	assert.Equal(t, 2401, populated)
	assert.False(t, table.valid(0x0000), "sixteen digits")
	assert.False(t, table.valid(0xffff), "no digits")
}

// octetWithLen returns an octet with exactly n decimal digits.
func octetWithLen(r *rand.Rand, n int) int {
	switch n {
	case 1:
		return r.Intn(10)
	case 2:
		return 10 + r.Intn(90)
	default:
		return 100 + r.Intn(156)
	}
}

func TestShuffleTableRoundTrip(t *testing.T) {
	table := loadShuffleTable()
	r := rand.New(rand.NewSource(1))
	tails := []string{" - - [25/May/2022:10:36:11", `"GET / HTTP/1.1"`, "              ", " 9999999999999"}

	for l0 := 1; l0 <= 3; l0++ {
		for l1 := 1; l1 <= 3; l1++ {
			for l2 := 1; l2 <= 3; l2++ {
				for l3 := 1; l3 <= 3; l3++ {
					name := fmt.Sprintf("%d%d%d%d", l0, l1, l2, l3)
					t.Run(name, func(t *testing.T) {
						for _, tail := range tails {
							o := [4]int{octetWithLen(r, l0), octetWithLen(r, l1), octetWithLen(r, l2), octetWithLen(r, l3)}
							addr := fmt.Sprintf("%d.%d.%d.%d", o[0], o[1], o[2], o[3])
							var window [16]byte
							copy(window[:], addr+" "+tail)

							ip, mask := parseIPv4Lanes(&window, table)
							require.True(t, table.valid(mask), "mask %016b for %q", mask, window)
							assert.Equal(t, addr, IPv4(ip).String(), "window %q", window)
						}
					})
				}
			}
		}
	}
}
