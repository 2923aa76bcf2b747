package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-iptables/iptables"
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// firewall is the part of *iptables.IPTables the banisher drives.
type firewall interface {
	AppendUnique(table, chain string, rulespec ...string) error
	Delete(table, chain string, rulespec ...string) error
}

func newIPTables() (firewall, error) {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init iptables")
	}
	return ipt, nil
}

func dropRule(ip string) []string {
	return []string{"-s", ip, "-j", "DROP"}
}

// banEntry is the value stored for a banned IP: its expiry, and whether a
// DROP rule was added for it. Encoded as "<unix seconds>[ iptables]".
type banEntry struct {
	Until    int64
	Firewall bool
}

const firewallMark = "iptables"

func (e banEntry) encode() []byte {
	v := strconv.FormatInt(e.Until, 10)
	if e.Firewall {
		v += " " + firewallMark
	}
	return []byte(v)
}

func decodeBanEntry(val []byte) (e banEntry, err error) {
	until, mark, _ := strings.Cut(string(val), " ")
	if e.Until, err = strconv.ParseInt(until, 10, 64); err != nil {
		return e, err
	}
	switch mark {
	case "":
	case firewallMark:
		e.Firewall = true
	default:
		return e, errors.Errorf("unknown mark %q", mark)
	}
	return e, nil
}

// Banisher records the verdict of a run in a badger DB, keyed by IP, and
// optionally enforces it with iptables. Nothing read from the DB ever feeds
// back into detection.
type Banisher struct {
	db     *badger.DB
	fw     firewall
	logger zerolog.Logger
}

// NewBanisher opens (or creates) the DB in databaseFile. fw may be nil.
func NewBanisher(databaseFile string, fw firewall, logger zerolog.Logger) (b *Banisher, err error) {
	b = &Banisher{fw: fw, logger: logger}

	options := badger.DefaultOptions(databaseFile)
	options.SyncWrites = true
	options.Logger = nil

	b.db, err = badger.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ban database")
	}
	return b, nil
}

func (b *Banisher) Close() error {
	return b.db.Close()
}

// Add bans ip until the given time. An IP already in the DB is left alone.
func (b *Banisher) Add(ip IPv4, until time.Time, ruleName string) (added bool, err error) {
	key := []byte(ip.String())

	found := false
	err = b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err != nil {
			if err == badger.ErrKeyNotFound {
				err = nil
			}
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to check in DB")
	}
	if found {
		return false, nil
	}

	if b.fw != nil {
		if err = b.fw.AppendUnique("filter", "INPUT", dropRule(ip.String())...); err != nil {
			return false, errors.Wrap(err, "failed to add iptables rule")
		}
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, banEntry{Until: until.Unix(), Firewall: b.fw != nil}.encode())
	})
	if err != nil {
		if b.fw != nil {
			if derr := b.fw.Delete("filter", "INPUT", dropRule(ip.String())...); derr != nil {
				b.logger.Error().Err(derr).Str("ip", ip.String()).Msg("failed to remove from iptables")
			}
		}
		return false, errors.Wrapf(err, "failed to add %s in db", ip)
	}
	b.logger.Debug().Str("rule", ruleName).Str("ip", ip.String()).Msg("banned")
	return true, nil
}

// Export bans every ip in ips for duration from now.
func (b *Banisher) Export(ips []IPv4, now time.Time, duration time.Duration, ruleName string) (added int, err error) {
	until := now.Add(duration)
	for _, ip := range ips {
		ok, err := b.Add(ip, until, ruleName)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Remove unbans an IP. A DROP rule that cannot be deleted (already gone,
// or never added) is logged; the DB entry is removed regardless.
func (b *Banisher) Remove(ip string) error {
	return b.remove(ip, b.fw != nil)
}

func (b *Banisher) remove(ip string, withFirewall bool) error {
	if withFirewall {
		if err := b.fw.Delete("filter", "INPUT", dropRule(ip)...); err != nil {
			b.logger.Error().Err(err).Str("ip", ip).Msg("failed to delete iptables rule")
		}
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(ip))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to remove %s from db", ip)
	}
	b.logger.Debug().Str("ip", ip).Msg("unbanned")
	return nil
}

// Prune removes bans that expired before now. A ban enforced by iptables is
// kept while no firewall is configured, so its DROP rule is not orphaned.
func (b *Banisher) Prune(now time.Time) (removed int, err error) {
	entries, err := b.List()
	if err != nil {
		return 0, err
	}
	for ip, e := range entries {
		if e.Until >= now.Unix() {
			continue
		}
		if e.Firewall && b.fw == nil {
			b.logger.Warn().Str("ip", ip).Msg("expired ban kept until a run with --iptables removes its rule")
			continue
		}
		if err := b.remove(ip, e.Firewall); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// List returns every banned IP with its entry.
func (b *Banisher) List() (map[string]banEntry, error) {
	entries := make(map[string]banEntry)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 20
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ip := string(it.Item().KeyCopy(nil))
			err := it.Item().Value(func(val []byte) error {
				e, err := decodeBanEntry(val)
				if err != nil {
					return errors.Wrapf(err, "bad entry for %s", ip)
				}
				entries[ip] = e
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ban database")
	}
	return entries, nil
}
