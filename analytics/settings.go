package analytics

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the plugin configuration consulted on every request.
type Settings struct {
	GoogleAnalyticsTracking string              `yaml:"googleAnalyticsTracking"`
	SendAnalyticsData       bool                `yaml:"sendAnalyticsData"`
	SendAnalyticsInDevMode  bool                `yaml:"sendAnalyticsInDevMode"`
	FilterBotUserAgents     bool                `yaml:"filterBotUserAgents"`
	AdminExclude            bool                `yaml:"adminExclude"`
	GroupExcludes           []string            `yaml:"groupExcludes"`
	ServerExcludes          map[string][]string `yaml:"serverExcludes"`

	// DevMode comes from the host environment, not the settings file.
	DevMode bool `yaml:"-"`

	// compiled holds the ServerExcludes patterns as of the last Validate.
	compiled map[string][]*regexp.Regexp
}

func DefaultSettings() Settings {
	return Settings{
		SendAnalyticsData:      true,
		SendAnalyticsInDevMode: true,
		FilterBotUserAgents:    true,
		ServerExcludes: map[string][]string{
			"REMOTE_ADDR": {`/^localhost$|^127(?:\.[0-9]+){0,2}\.[0-9]+$|^(?:0*\:)*?:?0*1$/`},
		},
	}
}

// LoadSettings reads a YAML settings file over the defaults. A missing file
// yields the defaults. A serverExcludes map in the file replaces the default
// map rather than merging into it.
func LoadSettings(path string) (*Settings, error) {
	settings := DefaultSettings()
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := settings.Validate(); err != nil {
				return nil, err
			}
			return &settings, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	defaults := settings.ServerExcludes
	settings.ServerExcludes = nil
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return nil, fmt.Errorf("parse settings file: %w", err)
	}
	if settings.ServerExcludes == nil {
		settings.ServerExcludes = defaults
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Validate compiles every server exclusion pattern once and keeps the ones
// that compile for use by Policy. It reports all invalid patterns. Call it
// again after changing ServerExcludes.
func (s *Settings) Validate() error {
	compiled := make(map[string][]*regexp.Regexp, len(s.ServerExcludes))
	var errs []error
	for name, patterns := range s.ServerExcludes {
		for _, p := range patterns {
			re, err := compilePattern(p)
			if err != nil {
				errs = append(errs, fmt.Errorf("serverExcludes[%s]: invalid pattern %q: %w", name, p, err))
				continue
			}
			compiled[name] = append(compiled[name], re)
		}
	}
	s.compiled = compiled
	return errors.Join(errs...)
}

// TrackingConfigured reports whether hits can be built at all.
func (s *Settings) TrackingConfigured() bool {
	return s.GoogleAnalyticsTracking != ""
}

// compilePattern accepts a bare regexp or a PCRE-style delimited one such as
// "/^10\./i". Only the i, m and s modifiers carry over.
func compilePattern(p string) (*regexp.Regexp, error) {
	if len(p) >= 2 && p[0] == '/' {
		if end := strings.LastIndexByte(p, '/'); end > 0 {
			body, mods := p[1:end], p[end+1:]
			var flags strings.Builder
			for _, m := range mods {
				switch m {
				case 'i', 'm', 's':
					flags.WriteRune(m)
				}
			}
			if flags.Len() > 0 {
				body = "(?" + flags.String() + ")" + body
			}
			return regexp.Compile(body)
		}
	}
	return regexp.Compile(p)
}
