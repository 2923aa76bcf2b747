package main

import (
	"os/user"

	"github.com/pkg/errors"
)

func isRoot() (bool, error) {
	currentUser, err := user.Current()
	if err != nil {
		return false, errors.Wrap(err, "unable to get current user")
	}
	return currentUser.Uid == "0", nil
}
