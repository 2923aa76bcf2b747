package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ipA = IPv4(10<<24 | 1)
	ipB = IPv4(10<<24 | 2)
	ipW = IPv4(9<<24 | 9<<16 | 9<<8 | 9)
)

func feed(tr *BanTracker, ip IPv4, line string, ts ...int64) {
	for _, x := range ts {
		tr.Update(Record{IP: ip, Timestamp: x}, []byte(line))
	}
}

func TestBanTrackerWindow(t *testing.T) {
	rule := banRule{Requests: 3, Period: 30}

	t.Run("banned on the third query", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		feed(tr, ipA, "", 100, 110)
		assert.Empty(t, tr.Banned())
		feed(tr, ipA, "", 120)
		assert.Equal(t, []IPv4{ipA}, tr.Banned())
		feed(tr, ipA, "", 125)
		assert.Equal(t, []IPv4{ipA}, tr.Banned())
	})

	t.Run("spread out queries", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		feed(tr, ipA, "", 100, 150, 200, 260)
		assert.Empty(t, tr.Banned())
	})

	t.Run("sliding, not bucketed", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		// no 30s bucket aligned on 0 holds three of these, the window 55..80 does
		feed(tr, ipA, "", 0, 55, 70, 80)
		assert.Equal(t, []IPv4{ipA}, tr.Banned())
	})

	t.Run("ips are independent", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		for i, ts := range []int64{100, 101, 102, 103, 104, 105} {
			ip := ipA
			if i%2 == 1 {
				ip = ipB
			}
			tr.Update(Record{IP: ip, Timestamp: ts}, nil)
		}
		assert.Equal(t, []IPv4{ipA, ipB}, tr.Banned())
		assert.Equal(t, 2, tr.Len())
	})

	t.Run("ban is permanent", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		feed(tr, ipA, "", 100, 101, 102)
		feed(tr, ipA, "", 1000, 5000, 9000, 20000)
		assert.Equal(t, []IPv4{ipA}, tr.Banned())
	})
}

func TestBanTrackerWhitelist(t *testing.T) {
	rule := banRule{Requests: 3, Period: 30}
	token, err := dailyToken(time.Date(2022, time.May, 25, 12, 0, 0, 0, time.Local), "s3cr3t", "sha256")
	require.NoError(t, err)
	tokenLine := fmt.Sprintf(`9.9.9.9 - - [25/May/2022:10:00:00 +0300] "GET /?t=%s HTTP/1.1" 200 1`, token)

	t.Run("token after the ban", func(t *testing.T) {
		tr := NewBanTracker(rule, []byte(token), nil)
		feed(tr, ipW, "plain", 100, 101, 102)
		feed(tr, ipW, tokenLine, 103)
		assert.Empty(t, tr.Banned())
		assert.Equal(t, 1, tr.Whitelisted())
	})

	t.Run("token before the ban", func(t *testing.T) {
		tr := NewBanTracker(rule, []byte(token), nil)
		feed(tr, ipW, tokenLine, 90)
		feed(tr, ipW, "plain", 100, 101, 102, 103)
		assert.Empty(t, tr.Banned())
	})

	t.Run("token lines do not count", func(t *testing.T) {
		tr := NewBanTracker(rule, []byte(token), nil)
		feed(tr, ipW, tokenLine, 100, 101, 102, 103)
		assert.False(t, tr.buffers[ipW].Banned)
		_, ok := tr.buffers[ipW].AddQuery(104)
		assert.False(t, ok, "ring must still be empty")
	})

	t.Run("token only helps its own ip", func(t *testing.T) {
		tr := NewBanTracker(rule, []byte(token), nil)
		feed(tr, ipW, tokenLine, 1)
		feed(tr, ipA, "plain", 100, 101, 102)
		assert.Equal(t, []IPv4{ipA}, tr.Banned())
	})

	t.Run("no secret no token", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, nil)
		feed(tr, ipW, tokenLine, 100, 101, 102)
		assert.Equal(t, []IPv4{ipW}, tr.Banned())
	})

	t.Run("static whitelist", func(t *testing.T) {
		tr := NewBanTracker(rule, nil, []IPv4{ipA})
		feed(tr, ipA, "plain", 100, 101, 102)
		feed(tr, ipB, "plain", 100, 101, 102)
		assert.Equal(t, []IPv4{ipB}, tr.Banned())
		assert.True(t, tr.buffers[ipA].Banned)
	})
}
