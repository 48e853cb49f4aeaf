package analytics

import "time"

// Request is the view of the inbound request the gateway works from. The
// HTTP layer adapts its own request type to it.
type Request interface {
	// URI is the path and query of the current request.
	URI() string
	ClientIP() string
	UserAgent() string
	// ServerVar looks up a CGI-style server variable (REMOTE_ADDR,
	// HTTP_USER_AGENT, ...).
	ServerVar(name string) (string, bool)
	Query(name string) string
	Cookie(name string) (string, bool)
	SetCookie(name, value string, maxAge time.Duration)

	IsConsole() bool
	IsControlPanel() bool
	IsLivePreview() bool

	// Session is never nil; an anonymous visitor has a session that is not
	// logged in.
	Session() Session
}

type Session interface {
	IsLoggedIn() bool
	IsAdmin() bool
	InGroup(handle string) bool
}
