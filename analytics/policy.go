package analytics

import (
	"regexp"

	"github.com/x-way/crawlerdetect"
	"go.uber.org/zap"
)

// CrawlerDetector reports whether a user agent belongs to a bot.
type CrawlerDetector func(userAgent string) bool

// Policy decides whether the current request may emit hits. The decision is
// computed on the first call to ShouldSend and then fixed for the request:
// later changes to the settings are not observed.
type Policy struct {
	settings *Settings
	req      Request
	isBot    CrawlerDetector
	log      *zap.Logger

	decided  bool
	decision bool
}

func NewPolicy(settings *Settings, req Request, isBot CrawlerDetector, log *zap.Logger) *Policy {
	if isBot == nil {
		isBot = crawlerdetect.IsCrawler
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Policy{settings: settings, req: req, isBot: isBot, log: log}
}

func (p *Policy) ShouldSend() bool {
	if p.decided {
		return p.decision
	}
	p.decided = true
	p.decision = p.evaluate()
	return p.decision
}

func (p *Policy) evaluate() bool {
	s := p.settings
	if !s.SendAnalyticsData {
		return p.reject("sendAnalyticsData disabled")
	}
	if s.DevMode && !s.SendAnalyticsInDevMode {
		return p.reject("devMode without sendAnalyticsInDevMode")
	}
	if p.req.IsConsole() {
		return p.reject("console request")
	}
	if p.req.IsControlPanel() {
		return p.reject("control panel request")
	}
	if p.req.IsLivePreview() {
		return p.reject("live preview request")
	}

	for name := range s.ServerExcludes {
		value, ok := p.req.ServerVar(name)
		if !ok {
			continue
		}
		for _, re := range p.serverPatterns(name) {
			if re.MatchString(value) {
				return p.reject("server exclusion "+name, zap.String("pattern", re.String()))
			}
		}
	}

	if s.FilterBotUserAgents && p.isBot(p.req.UserAgent()) {
		return p.reject("crawler user agent", zap.String("user_agent", p.req.UserAgent()))
	}

	session := p.req.Session()
	if session != nil {
		if s.AdminExclude && session.IsAdmin() {
			return p.reject("admin excluded")
		}
		if session.IsLoggedIn() && len(s.GroupExcludes) > 0 {
			for _, group := range s.GroupExcludes {
				if session.InGroup(group) {
					return p.reject("group excluded", zap.String("group", group))
				}
			}
		}
	}
	return true
}

// serverPatterns returns the patterns compiled by Settings.Validate, or
// compiles them on the spot for settings that were never validated.
func (p *Policy) serverPatterns(name string) []*regexp.Regexp {
	if p.settings.compiled != nil {
		return p.settings.compiled[name]
	}
	var out []*regexp.Regexp
	for _, pattern := range p.settings.ServerExcludes[name] {
		re, err := compilePattern(pattern)
		if err != nil {
			p.log.Warn("skipping invalid server exclusion", zap.String("var", name), zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		out = append(out, re)
	}
	return out
}

func (p *Policy) reject(reason string, fields ...zap.Field) bool {
	p.log.Debug("analytics suppressed: "+reason, fields...)
	return false
}
