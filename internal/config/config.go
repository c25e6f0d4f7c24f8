// Package config resolves dnsbench settings from flags, environment
// variables (DNSBENCH_*), the YAML config file, and built-in defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/candidate"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/probe"
	"github.com/tbckr/dnsbench/internal/scheduler"
)

// ErrUnknownKey is returned for config keys dnsbench does not know.
var ErrUnknownKey = errors.New("unknown config key")

// Config is the fully resolved configuration.
type Config struct {
	// ConfigFile is the path the configuration was read from.
	ConfigFile string `mapstructure:"-"`

	Verbose bool   `mapstructure:"verbose"`
	Output  string `mapstructure:"output"`

	Probes      int           `mapstructure:"probes"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
	Slack       time.Duration `mapstructure:"slack"`
	Rate        float64       `mapstructure:"rate"`
	Epsilon     time.Duration `mapstructure:"epsilon"`

	Query     string `mapstructure:"query"`
	QueryType string `mapstructure:"query_type"`
	Cold      bool   `mapstructure:"cold"`

	Resolvers    []string `mapstructure:"resolvers"`
	ResolversURL string   `mapstructure:"resolvers_url"`
	NoBuiltin    bool     `mapstructure:"no_builtin"`
	ResolvConf   string   `mapstructure:"resolv_conf"`
	GeoIPDB      string   `mapstructure:"geoip_db"`

	Proxy     string `mapstructure:"proxy"`
	UserAgent string `mapstructure:"user_agent"`
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindList
)

// keySpec describes how a key is parsed and validated by `config set`.
type keySpec struct {
	kind     kind
	choices  []string
	validate func(string) error
}

var keySpecs = map[string]keySpec{
	"verbose":       {kind: kindBool},
	"output":        {kind: kindString, choices: output.Formats()},
	"probes":        {kind: kindInt, validate: intRange(1, scheduler.MaxProbesPerCandidate)},
	"timeout":       {kind: kindDuration, validate: positiveDuration},
	"concurrency":   {kind: kindInt, validate: intRange(1, 0)},
	"slack":         {kind: kindDuration},
	"rate":          {kind: kindFloat},
	"epsilon":       {kind: kindDuration},
	"query":         {kind: kindString, validate: domainName},
	"query_type":    {kind: kindString, choices: []string{"A", "AAAA"}},
	"cold":          {kind: kindBool},
	"resolvers":     {kind: kindList, validate: resolverEntry},
	"resolvers_url": {kind: kindString, validate: httpURL},
	"no_builtin":    {kind: kindBool},
	"resolv_conf":   {kind: kindString},
	"geoip_db":      {kind: kindString},
	"proxy":         {kind: kindString},
	"user_agent":    {kind: kindString},
}

// ValidKeys returns every settable config key, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(keySpecs))
	for k := range keySpecs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// NormalizeKey converts hyphenated flag names to config keys
// (e.g. "query-type" → "query_type").
func NormalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
}

// ValidateKey returns ErrUnknownKey if key is not a known config key.
func ValidateKey(key string) error {
	if _, ok := keySpecs[NormalizeKey(key)]; !ok {
		return fmt.Errorf("%w: %q (valid keys: %s)", ErrUnknownKey, key, strings.Join(ValidKeys(), ", "))
	}
	return nil
}

// ParseValue converts the string value for key into the typed value written
// to the config file. Durations stay in their string form ("300ms").
func ParseValue(key, value string) (any, error) {
	key = NormalizeKey(key)
	spec, ok := keySpecs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	var typed any
	switch spec.kind {
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", key, value)
		}
		typed = b
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", key, value)
		}
		typed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("%s: must be a non-negative number, got %q", key, value)
		}
		typed = f
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%s: must be a non-negative duration like 300ms, got %q", key, value)
		}
		typed = d.String()
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		typed = items
	default:
		if spec.choices != nil {
			if key == "query_type" {
				value = strings.ToUpper(value)
			}
			if !slices.Contains(spec.choices, value) {
				return nil, fmt.Errorf("%s: must be one of %s, got %q", key, strings.Join(spec.choices, ", "), value)
			}
		}
		typed = value
	}

	if spec.validate != nil {
		values := []string{value}
		if items, ok := typed.([]string); ok {
			values = items
		}
		for _, v := range values {
			if err := spec.validate(v); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return typed, nil
}

// KeyCompletions returns completion candidates for the value of key.
func KeyCompletions(key string) []string {
	spec, ok := keySpecs[NormalizeKey(key)]
	if !ok {
		return nil
	}
	if spec.kind == kindBool {
		return []string{"true", "false"}
	}
	return spec.choices
}

func intRange(lo, hi int) func(string) error {
	return func(s string) error {
		n, _ := strconv.Atoi(s)
		if n < lo || (hi > 0 && n > hi) {
			if hi > 0 {
				return fmt.Errorf("must be between %d and %d, got %d", lo, hi, n)
			}
			return fmt.Errorf("must be at least %d, got %d", lo, n)
		}
		return nil
	}
}

func positiveDuration(s string) error {
	if d, _ := time.ParseDuration(s); d <= 0 {
		return fmt.Errorf("must be positive, got %q", s)
	}
	return nil
}

func domainName(s string) error {
	if _, ok := dns.IsDomainName(s); !ok || s == "" {
		return fmt.Errorf("invalid domain name %q", s)
	}
	return nil
}

func resolverEntry(s string) error {
	_, err := candidate.Parse(s, candidate.SourceConfigured)
	return err
}

func httpURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL, got %q", s)
	}
	return nil
}

// QueryTypeCode returns the DNS type code for c.QueryType.
func (c *Config) QueryTypeCode() (uint16, error) {
	return probe.ParseQueryType(c.QueryType)
}

// ProbeQuery validates the query settings and returns the fully qualified
// name and type code to probe with. Flags and environment values bypass
// ParseValue, so the benchmark checks them here.
func (c *Config) ProbeQuery() (string, uint16, error) {
	if err := domainName(c.Query); err != nil {
		return "", 0, fmt.Errorf("%w: query: %v", apperr.ErrInvalidInput, err)
	}
	qtype, err := c.QueryTypeCode()
	if err != nil {
		return "", 0, err
	}
	return dns.Fqdn(c.Query), qtype, nil
}

// NormalizeFlag converts a config key to its flag name
// (e.g. "query_type" → "query-type").
func NormalizeFlag(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
