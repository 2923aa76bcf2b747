package main

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegexParser(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr error
	}{
		{"valid", defaultLogRegex, nil},
		{"angle bracket groups", `^(?<ip>\S+) - [^ ]+ \[(?<DT>[^\]]+)\]`, nil},
		{"without DT", `^(?P<ip>\d+\.\d+\.\d+\.\d+)`, ErrDTGroupExpected},
		{"without ip", ``, ErrIPGroupExpected},
		{"ip checked first", `(?P<DT>.*)`, ErrIPGroupExpected},
		{"invalid regex", `^(?P<ip>\d+\.\d+\.\d+\.\d+) - [^ ]+ \[(?P<DT>[^\]]+`, ErrUncompilableRegex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewRegexParser(tt.pattern, defaultDateFormat)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, p)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRegexParserDateFormat(t *testing.T) {
	tests := []struct {
		layout  string
		wantErr bool
	}{
		{defaultDateFormat, false},
		{clockFormat, false},
		{time.RFC3339, false},
		{"02/Jan/06:15:04:05", false},
		{"Jan _2 15:04:05", true},
		{"02/Jan:15:04:05", true},
	}
	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			_, err := NewRegexParser(defaultLogRegex, tt.layout)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrYearlessDateFormat), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegexParserParse(t *testing.T) {
	p, err := NewRegexParser(defaultLogRegex, defaultDateFormat)
	require.NoError(t, err)

	tests := []struct {
		name    string
		line    string
		want    Record
		wantErr error
	}{
		{"no match", `1.1.1. - - [....]`, Record{}, InvalidLine},
		{"bad datetime", `1.1.1.1 - - [....]`, Record{}, InvalidDateTime},
		{"bad ip", `12.13.156.1123 - - [25/May/2022:10:36:11 +0300] "GET /`, Record{}, InvalidIP},
		{
			"epoch timestamp",
			`12.13.156.113 - - [25/May/2022:10:36:11 +0300] "GET /`,
			Record{
				IP:        12<<24 | 13<<16 | 156<<8 | 113,
				Timestamp: time.Date(2022, time.May, 25, 7, 36, 11, 0, time.UTC).Unix(),
			},
			nil,
		},
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

func TestRegexParserClockMode(t *testing.T) {
	p, err := NewRegexParser(clockRegex, clockFormat)
	require.NoError(t, err)

	got, err := p.Parse([]byte(`10.0.0.7 - bob [25/May/2022:23:59:59 +0300] "GET /`))
	require.NoError(t, err)
	assert.Equal(t, int64(86399), got.Timestamp)

	_, err = p.Parse([]byte(`10.0.0.7 - bob [25/May/2022:24:00:00 +0300] "GET /`))
	assert.Equal(t, InvalidDateTime, err)
}
