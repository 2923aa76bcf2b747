package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSIMDParser(t *testing.T) {
	p := NewSIMDParser(loadShuffleTable())

	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr error
	}{
		{"sample", sampleLine, Record{IP: 118<<24 | 174<<16 | 114<<8 | 113, Timestamp: 38171}, nil},
		{"short ip", `1.1.1.1 - - [25/May/2022:23:59:59 +0300]`, Record{IP: 1<<24 | 1<<16 | 1<<8 | 1, Timestamp: 86399}, nil},
		{"user field", `9.9.9.9 - admin [25/May/2022:00:00:01 +0300]`, Record{IP: 9<<24 | 9<<16 | 9<<8 | 9, Timestamp: 1}, nil},
		{"clock at end of line", `9.9.9.9 - - [25/May/2022:00:01:00`, Record{IP: 9<<24 | 9<<16 | 9<<8 | 9, Timestamp: 60}, nil},
		{"shorter than window", `1.1.1.1 - -`, Record{}, InvalidLine},
		{"truncated clock", `1.1.1.1 - - [25/May/2022:00:01`, Record{}, InvalidLine},
		{"no colon", `1.1.1.1 - - [25/May/2022 00.01.00]`, Record{}, InvalidLine},
		{"no second space", `1.1.1.1 -xxxxxxxxxxxxxxxxxxxxx`, Record{}, InvalidLine},
		{"not a dotted quad", `1234567890123456 - - [25/May/2022:00:01:00 +0300]`, Record{}, InvalidIP},
		{"five digit group", `12345.1.1.1 - - [25/May/2022:00:01:00 +0300]`, Record{}, InvalidIP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse([]byte(tt.line))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
