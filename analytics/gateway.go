package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"instantanalytics/api/measurement"
)

// fallbackUserAgent is reported when the visitor sent no User-Agent header.
const fallbackUserAgent = "Mozilla/5.0 (Windows; U; Windows NT 5.1; en-US; rv:1.8.1.13) Gecko/20080311 Firefox/2.0.0.13"

// DefaultActionBase is the route prefix of the tracking callback endpoints.
const DefaultActionBase = "/actions/instant-analytics"

// Recorder observes every hit that reaches the send step.
type Recorder interface {
	RecordHit(ctx context.Context, hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration)
}

// Recorders fans a hit out to several recorders.
type Recorders []Recorder

func (rs Recorders) RecordHit(ctx context.Context, hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration) {
	for _, r := range rs {
		if r != nil {
			r.RecordHit(ctx, hit, outcome, elapsed)
		}
	}
}

// Service holds the process-wide collaborators. It hands out one Gateway per
// request and keeps no per-request state of its own.
type Service struct {
	settings   *Settings
	sender     measurement.Sender
	recorder   Recorder
	isBot      CrawlerDetector
	log        *zap.Logger
	actionBase string
}

type Option func(*Service)

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithCrawlerDetector(d CrawlerDetector) Option {
	return func(s *Service) { s.isBot = d }
}

func WithActionBase(base string) Option {
	return func(s *Service) { s.actionBase = strings.TrimRight(base, "/") }
}

func NewService(settings *Settings, sender measurement.Sender, opts ...Option) *Service {
	s := &Service{
		settings:   settings,
		sender:     sender,
		log:        zap.NewNop(),
		actionBase: DefaultActionBase,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Gateway is the request-scoped analytics context: the memoized send
// decision, the resolved visitor identity and the cached page view hit.
type Gateway struct {
	svc    *Service
	req    Request
	policy *Policy
	log    *zap.Logger

	identityResolved bool
	clientID         string
	clickID          string

	pageView     *measurement.Hit
	pageViewSent bool
}

// ForRequest starts the analytics context for one inbound request.
func (s *Service) ForRequest(req Request, fields ...zap.Field) *Gateway {
	log := s.log.With(fields...)
	return &Gateway{
		svc:    s,
		req:    req,
		policy: NewPolicy(s.settings, req, s.isBot, log),
		log:    log,
	}
}

func (g *Gateway) ShouldSend() bool {
	return g.policy.ShouldSend()
}

func (g *Gateway) resolveIdentity() {
	if g.identityResolved {
		return
	}
	g.identityResolved = true
	g.clientID = ResolveClientID(g.req, g.log)
	g.clickID = ResolveClickID(g.req)
}

// ClientID returns the visitor's client id, persisting the identity cookies
// on first use.
func (g *Gateway) ClientID() string {
	g.resolveIdentity()
	return g.clientID
}

func (g *Gateway) ClickID() string {
	g.resolveIdentity()
	return g.clickID
}

// NewHit returns a hit primed with the tracking id and visitor details, or
// nil when no tracking id is configured.
func (g *Gateway) NewHit() *measurement.Hit {
	if !g.svc.settings.TrackingConfigured() {
		return nil
	}
	ua := g.req.UserAgent()
	if ua == "" {
		ua = fallbackUserAgent
	}
	hit := measurement.NewHit(g.svc.settings.GoogleAnalyticsTracking).
		SetIPOverride(g.req.ClientIP()).
		SetUserAgentOverride(ua).
		SetClientID(g.ClientID())
	if gclid := g.ClickID(); gclid != "" {
		hit.SetGoogleAdsID(gclid)
	}
	return hit
}

// PageView builds a pageview hit for rawURL (the current request when empty)
// and caches it for SendPageView.
func (g *Gateway) PageView(rawURL, title string) *measurement.Hit {
	hit := g.NewHit()
	if hit == nil {
		return nil
	}
	if rawURL == "" {
		rawURL = g.req.URI()
	}
	path := DocumentPath(rawURL)
	hit.SetType(measurement.HitPageview).
		SetDocumentPath(path).
		SetDocumentTitle(title)
	g.pageView = hit
	g.pageViewSent = false
	g.log.Info("pageview built", zap.String("path", path), zap.String("title", title))
	return hit
}

// CurrentPageView returns the cached pageview, building one for the current
// request if none exists yet.
func (g *Gateway) CurrentPageView(title string) *measurement.Hit {
	if g.pageView != nil {
		return g.pageView
	}
	return g.PageView("", title)
}

// SendPageView sends the cached pageview once. Later calls are no-ops.
func (g *Gateway) SendPageView(ctx context.Context) {
	if g.pageView == nil || g.pageViewSent {
		return
	}
	g.pageViewSent = true
	g.send(ctx, g.pageView)
}

// Event builds an event hit, or nil when tracking is unconfigured.
func (g *Gateway) Event(category, action, label string, value int64) *measurement.Hit {
	hit := g.NewHit()
	if hit == nil {
		return nil
	}
	hit.SetType(measurement.HitEvent).
		SetEventCategory(category).
		SetEventAction(action).
		SetEventLabel(label).
		SetEventValue(value)
	g.log.Info("event built",
		zap.String("category", category),
		zap.String("action", action),
		zap.String("label", label),
		zap.Int64("value", value),
	)
	return hit
}

func (g *Gateway) SendEvent(ctx context.Context, hit *measurement.Hit) {
	if hit == nil {
		return
	}
	g.send(ctx, hit)
}

// send delivers hit when the request is eligible. Failures are logged and
// recorded, never returned.
func (g *Gateway) send(ctx context.Context, hit *measurement.Hit) {
	if !g.ShouldSend() {
		g.record(ctx, hit, measurement.OutcomeSuppressed, 0)
		return
	}
	start := time.Now()
	err := g.svc.sender.Send(ctx, hit)
	elapsed := time.Since(start)
	if err != nil {
		g.log.Warn("failed to send hit", zap.String("type", string(hit.Type)), zap.Error(err))
		g.record(ctx, hit, measurement.OutcomeFailed, elapsed)
		return
	}
	g.log.Debug("hit sent", zap.String("type", string(hit.Type)), zap.Duration("latency", elapsed))
	g.record(ctx, hit, measurement.OutcomeSent, elapsed)
}

func (g *Gateway) record(ctx context.Context, hit *measurement.Hit, outcome measurement.Outcome, elapsed time.Duration) {
	if g.svc.recorder != nil {
		g.svc.recorder.RecordHit(ctx, hit, outcome, elapsed)
	}
}

// DocumentPath reduces a URL to what is reported as the document path:
// absolute URLs keep only path and query, verbatim, protocol-relative URLs
// lose their leading slash.
func DocumentPath(raw string) string {
	if scheme := absoluteScheme(raw); scheme != "" {
		rest := raw[len(scheme):]
		if i := strings.IndexAny(rest, "/?#"); i >= 0 {
			rest = rest[i:]
		} else {
			rest = ""
		}
		if i := strings.IndexByte(rest, '#'); i >= 0 {
			rest = rest[:i]
		}
		path, query, hasQuery := strings.Cut(rest, "?")
		if path == "" {
			path = "/"
		}
		raw = path
		if hasQuery && query != "" {
			raw += "?" + query
		}
	}
	if strings.HasPrefix(raw, "//") {
		raw = raw[1:]
	}
	return raw
}

// absoluteScheme returns the "http://" or "https://" prefix of raw as
// written, or "" for any other URL.
func absoluteScheme(raw string) string {
	for _, prefix := range []string{"http://", "https://"} {
		if len(raw) >= len(prefix) && strings.EqualFold(raw[:len(prefix)], prefix) {
			return raw[:len(prefix)]
		}
	}
	return ""
}

// CoerceEventValue converts a loosely formatted number to an event value by
// truncation, reading the leading numeric part like a form field would.
func CoerceEventValue(raw string) int64 {
	raw = strings.TrimSpace(raw)
	end := 0
	for end < len(raw) {
		c := raw[end]
		if (c >= '0' && c <= '9') || c == '.' || (end == 0 && (c == '-' || c == '+')) {
			end++
			continue
		}
		break
	}
	d, err := decimal.NewFromString(raw[:end])
	if err != nil {
		return 0
	}
	return d.IntPart()
}
