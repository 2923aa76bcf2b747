package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	readerBuffered = "buffered"
	readerMmap     = "mmap"
	readerJournal  = "journal"

	defaultBanDuration = 3600
)

type Config struct {
	LogFile     string   `toml:"log_file" yaml:"log_file"`
	Parser      string   `toml:"parser" yaml:"parser"`
	Reader      string   `toml:"reader" yaml:"reader"`
	LogRegex    string   `toml:"log_regex" yaml:"log_regex"`
	DateFormat  string   `toml:"date_format" yaml:"date_format"`
	Requests    int      `toml:"requests" yaml:"requests"`
	Period      int64    `toml:"period" yaml:"period"`
	Secret      string   `toml:"secret" yaml:"secret"`
	TokenHash   string   `toml:"token_hash" yaml:"token_hash"`
	Whitelist   []string `toml:"whitelist" yaml:"whitelist"`
	JournalUnit string   `toml:"journal_unit" yaml:"journal_unit"`
	BanDuration uint     `toml:"ban_duration" yaml:"ban_duration"`

	whitelist []IPv4
}

func defaultConfig() Config {
	return Config{
		LogFile:     "-",
		Parser:      parserSIMD,
		Reader:      readerBuffered,
		LogRegex:    defaultLogRegex,
		DateFormat:  defaultDateFormat,
		TokenHash:   "sha256",
		BanDuration: defaultBanDuration,
	}
}

// loadConfig reads a TOML file, or YAML when the extension says so. The
// result still has to go through validate.
func loadConfig(path string) (conf Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return conf, errors.Wrapf(err, "failed to read config file %s", path)
	}
	conf = defaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&conf)
	default:
		var md toml.MetaData
		md, err = toml.Decode(string(data), &conf)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = errors.Errorf("unknown key %s", undecoded[0])
			}
		}
	}
	if err != nil {
		return conf, errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return conf, nil
}

// validate checks the settings and resolves the whitelist.
func (c *Config) validate() error {
	if err := c.rule().validate(); err != nil {
		return err
	}
	switch c.Parser {
	case parserRegex, parserAutomaton, parserSIMD:
	default:
		return errors.Errorf("unknown parser %q", c.Parser)
	}
	switch c.Reader {
	case readerBuffered, readerMmap, readerJournal:
	default:
		return errors.Errorf("unknown reader %q", c.Reader)
	}
	if c.LogFile == "" && c.Reader != readerJournal {
		return errors.New("required field 'log_file' is missing")
	}
	if _, ok := tokenHashes[c.TokenHash]; !ok {
		return errors.Errorf("unknown token_hash %q", c.TokenHash)
	}

	c.whitelist = c.whitelist[:0]
	for _, raw := range c.Whitelist {
		ip, ok := parseIPv4(raw)
		if !ok {
			return errors.Errorf("%s is not a valid IPv4 for whitelist", raw)
		}
		if c.isIPWhitelisted(ip) {
			return errors.Errorf("%s appears multiple time in your whitelist", raw)
		}
		c.whitelist = append(c.whitelist, ip)
	}
	return nil
}

func (c Config) rule() banRule {
	return banRule{Name: "rate", Requests: c.Requests, Period: c.Period}
}

// check if ip is whitelisted
func (c Config) isIPWhitelisted(ip IPv4) bool {
	for _, ipw := range c.whitelist {
		if ip == ipw {
			return true
		}
	}
	return false
}
