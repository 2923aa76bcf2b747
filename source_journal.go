//go:build linux && cgo

package main

import (
	"github.com/coreos/go-systemd/sdjournal"
	"github.com/pkg/errors"
)

// openJournalSource reads the whole systemd journal, or the entries of one
// unit, emitting the MESSAGE field of each entry as a line.
func openJournalSource(unit string) (LineSource, error) {
	conf := sdjournal.JournalReaderConfig{
		Formatter: func(entry *sdjournal.JournalEntry) (string, error) {
			return entry.Fields[sdjournal.SD_JOURNAL_FIELD_MESSAGE] + "\n", nil
		},
	}
	if unit != "" {
		conf.Matches = []sdjournal.Match{{
			Field: sdjournal.SD_JOURNAL_FIELD_SYSTEMD_UNIT,
			Value: unit,
		}}
	}
	r, err := sdjournal.NewJournalReader(conf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get journal reader")
	}
	if r == nil {
		return nil, errors.New("journal reader is nil")
	}
	return newReaderSource(r, r), nil
}
