package analytics

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	PageViewAction = "track-page-view-url"
	EventAction    = "track-event-url"
)

// PageViewTrackingURL returns a callback URL that records a pageview for
// rawURL when requested.
func (s *Service) PageViewTrackingURL(rawURL, title string) string {
	return s.actionURL(PageViewAction, [][2]string{
		{"url", rawURL},
		{"title", title},
	})
}

// EventTrackingURL returns a callback URL that records an event when
// requested.
func (s *Service) EventTrackingURL(rawURL, category, action, label string, value int64) string {
	return s.actionURL(EventAction, [][2]string{
		{"url", rawURL},
		{"eventCategory", category},
		{"eventAction", action},
		{"eventLabel", label},
		{"eventValue", strconv.FormatInt(value, 10)},
	})
}

// actionURL keeps the parameter order stable, which url.Values.Encode would
// not.
func (s *Service) actionURL(action string, params [][2]string) string {
	var b strings.Builder
	b.WriteString(s.actionBase)
	b.WriteString("/")
	b.WriteString(action)
	sep := "?"
	for _, kv := range params {
		b.WriteString(sep)
		b.WriteString(kv[0])
		b.WriteString("=")
		b.WriteString(url.QueryEscape(kv[1]))
		sep = "&"
	}
	return b.String()
}
