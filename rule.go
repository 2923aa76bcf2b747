package main

import "github.com/pkg/errors"

// banRule is "Requests requests within at most Period seconds".
type banRule struct {
	Name     string
	Requests int
	Period   int64
}

func (r banRule) validate() error {
	if r.Requests < 1 {
		return errors.Errorf("requests must be at least 1, got %d", r.Requests)
	}
	if r.Period < 0 {
		return errors.Errorf("period must not be negative, got %d", r.Period)
	}
	return nil
}

// exceeded reports whether a window of width delta (current minus earliest
// timestamp) is narrow enough to ban. Out of order lines give a negative
// delta, which counts as a burst.
func (r banRule) exceeded(delta int64) bool {
	return delta <= r.Period
}
