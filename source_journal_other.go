//go:build !(linux && cgo)

package main

import "github.com/pkg/errors"

func openJournalSource(string) (LineSource, error) {
	return nil, errors.New("journal reader requires linux and cgo")
}
