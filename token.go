package main

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const tokenDateLayout = "20060102"

var tokenHashes = map[string]func() hash.Hash{
	"sha256":      sha256.New,
	"sha3-256":    sha3.New256,
	"blake2b-256": newBlake2b256,
}

func newBlake2b256() hash.Hash {
	h, _ := blake2b.New256(nil) // only fails for keys over 64 bytes
	return h
}

// dailyToken returns the hex digest of day (yyyymmdd) followed by secret.
// An empty secret yields an empty token: nothing is whitelisted by token.
func dailyToken(day time.Time, secret, hashName string) (string, error) {
	if secret == "" {
		return "", nil
	}
	newHash, ok := tokenHashes[hashName]
	if !ok {
		return "", errors.Errorf("unknown token_hash %q", hashName)
	}
	h := newHash()
	h.Write([]byte(day.Format(tokenDateLayout)))
	h.Write([]byte(secret))
	return hex.EncodeToString(h.Sum(nil)), nil
}
