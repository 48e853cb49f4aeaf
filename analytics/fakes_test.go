package analytics

import (
	"context"
	"errors"
	"time"

	"instantanalytics/api/measurement"
)

type fakeSession struct {
	loggedIn bool
	admin    bool
	groups   []string
}

func (s fakeSession) IsLoggedIn() bool { return s.loggedIn }
func (s fakeSession) IsAdmin() bool    { return s.admin }
func (s fakeSession) InGroup(h string) bool {
	for _, g := range s.groups {
		if g == h {
			return true
		}
	}
	return false
}

type setCookie struct {
	value  string
	maxAge time.Duration
}

type fakeRequest struct {
	uri         string
	ip          string
	ua          string
	server      map[string]string
	query       map[string]string
	cookies     map[string]string
	set         map[string]setCookie
	console     bool
	cp          bool
	livePreview bool
	session     fakeSession

	consoleCalls int
}

func newFakeRequest() *fakeRequest {
	return &fakeRequest{
		uri:     "/shop?page=2",
		ip:      "203.0.113.7",
		ua:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		server:  map[string]string{"REMOTE_ADDR": "203.0.113.7"},
		query:   map[string]string{},
		cookies: map[string]string{},
		set:     map[string]setCookie{},
	}
}

func (r *fakeRequest) URI() string       { return r.uri }
func (r *fakeRequest) ClientIP() string  { return r.ip }
func (r *fakeRequest) UserAgent() string { return r.ua }
func (r *fakeRequest) ServerVar(name string) (string, bool) {
	v, ok := r.server[name]
	return v, ok
}
func (r *fakeRequest) Query(name string) string { return r.query[name] }
func (r *fakeRequest) Cookie(name string) (string, bool) {
	v, ok := r.cookies[name]
	return v, ok
}
func (r *fakeRequest) SetCookie(name, value string, maxAge time.Duration) {
	r.set[name] = setCookie{value: value, maxAge: maxAge}
}
func (r *fakeRequest) IsConsole() bool {
	r.consoleCalls++
	return r.console
}
func (r *fakeRequest) IsControlPanel() bool { return r.cp }
func (r *fakeRequest) IsLivePreview() bool  { return r.livePreview }
func (r *fakeRequest) Session() Session     { return r.session }

type fakeSender struct {
	hits []*measurement.Hit
	err  error
}

func (s *fakeSender) Send(_ context.Context, hit *measurement.Hit) error {
	s.hits = append(s.hits, hit)
	return s.err
}

type recorded struct {
	hit     *measurement.Hit
	outcome measurement.Outcome
}

type fakeRecorder struct {
	entries []recorded
}

func (r *fakeRecorder) RecordHit(_ context.Context, hit *measurement.Hit, outcome measurement.Outcome, _ time.Duration) {
	r.entries = append(r.entries, recorded{hit: hit, outcome: outcome})
}

var errCollectDown = errors.New("collect endpoint down")

func enabledSettings() *Settings {
	s := DefaultSettings()
	s.GoogleAnalyticsTracking = "UA-1234-1"
	return &s
}

func neverBot(string) bool { return false }
