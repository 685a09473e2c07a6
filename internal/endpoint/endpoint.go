// Package endpoint resolves logical API endpoint names to fully qualified URLs for the chat widget.
//
// A Resolver is built once from a Config and an optional set of Overrides and is read-only afterwards.
package endpoint

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"
)

// LocalOrigin is the development origin every URL resolves against when the widget runs on a loopback host.
const LocalOrigin = "http://localhost:8000"

// Logical endpoint names known to the default configuration.
const (
	Chat   = "CHAT"
	Health = "HEALTH"
)

// Config holds the base URL and the logical-name to path table.
type Config struct {
	BaseURL   string            `toml:"base_url"`
	Endpoints map[string]string `toml:"endpoints"`
}

// Overrides replace parts of a Config before a Resolver is built. A nil field leaves the Config value alone;
// a non-nil Endpoints replaces the whole table rather than merging entries into it.
type Overrides struct {
	BaseURL   *string           `toml:"base_url"`
	Endpoints map[string]string `toml:"endpoints"`
}

// Resolver turns logical endpoint names into URLs.
type Resolver struct {
	cfg      Config
	loopback bool
}

// DefaultConfig returns the configuration the site ships with: same-origin relative paths.
func DefaultConfig() Config {
	return Config{
		BaseURL: "",
		Endpoints: map[string]string{
			Chat:   "/api/chat",
			Health: "/api/health",
		},
	}
}

// New builds a Resolver for a widget served from host. Overrides, if any, are applied to cfg first.
func New(cfg Config, host string, ov *Overrides) *Resolver {
	cfg.Endpoints = maps.Clone(cfg.Endpoints)
	if ov != nil {
		if ov.BaseURL != nil {
			cfg.BaseURL = *ov.BaseURL
		}
		if ov.Endpoints != nil {
			cfg.Endpoints = maps.Clone(ov.Endpoints)
		}
	}
	return &Resolver{
		cfg:      cfg,
		loopback: IsLoopback(host),
	}
}

// URL resolves name. Names missing from the table are used as literal paths.
func (r *Resolver) URL(name string) string {
	path, ok := r.cfg.Endpoints[name]
	if !ok {
		path = name
	}
	if r.loopback {
		return LocalOrigin + path
	}
	return r.cfg.BaseURL + path
}

// Config returns a copy of the effective configuration.
func (r *Resolver) Config() Config {
	return Config{
		BaseURL:   r.cfg.BaseURL,
		Endpoints: maps.Clone(r.cfg.Endpoints),
	}
}

// Local reports whether the resolver forces LocalOrigin.
func (r *Resolver) Local() bool {
	return r.loopback
}

// IsLoopback reports whether host names the local machine. A port suffix is ignored.
func IsLoopback(host string) bool {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// HostOf returns the host name of the page origin the widget is served from. An empty or unparsable origin
// yields an empty host, which is never loopback.
func HostOf(origin string) string {
	if origin == "" {
		return ""
	}
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// LoadOverrides reads Overrides from a TOML file:
//
//	base_url = "https://api.example.com"
//
//	[endpoints]
//	CHAT = "/v2/chat"
func LoadOverrides(path string) (*Overrides, error) {
	var ov Overrides
	if _, err := toml.DecodeFile(path, &ov); err != nil {
		return nil, fmt.Errorf("failed to decode overrides %s: %w", path, err)
	}
	return &ov, nil
}
