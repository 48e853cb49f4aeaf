package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"instantanalytics/api/analytics"
	"instantanalytics/api/models"
)

// Query parameters the CMS adds to live preview and share-link requests.
var livePreviewParams = []string{"x-craft-live-preview", "x-craft-preview"}

// ginRequest adapts a gin context to analytics.Request.
type ginRequest struct {
	c         *gin.Context
	cpTrigger string
}

// NewRequest wraps c. Paths under /cpTrigger count as control panel requests.
func NewRequest(c *gin.Context, cpTrigger string) analytics.Request {
	return &ginRequest{c: c, cpTrigger: strings.Trim(cpTrigger, "/")}
}

func (r *ginRequest) URI() string       { return r.c.Request.URL.RequestURI() }
func (r *ginRequest) ClientIP() string  { return r.c.ClientIP() }
func (r *ginRequest) UserAgent() string { return r.c.Request.UserAgent() }

// ServerVar maps CGI variable names onto the request. HTTP_* names read the
// matching header.
func (r *ginRequest) ServerVar(name string) (string, bool) {
	req := r.c.Request
	switch name {
	case "REMOTE_ADDR":
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			return req.RemoteAddr, req.RemoteAddr != ""
		}
		return host, true
	case "REQUEST_METHOD":
		return req.Method, true
	case "REQUEST_URI":
		return req.URL.RequestURI(), true
	case "QUERY_STRING":
		return req.URL.RawQuery, true
	case "SERVER_NAME":
		return req.Host, req.Host != ""
	case "SERVER_PROTOCOL":
		return req.Proto, true
	case "HTTPS":
		if req.TLS != nil {
			return "on", true
		}
		return "", false
	}

	if strings.HasPrefix(name, "HTTP_") {
		if name == "HTTP_HOST" {
			return req.Host, req.Host != ""
		}
		header := http.CanonicalHeaderKey(strings.ReplaceAll(strings.TrimPrefix(name, "HTTP_"), "_", "-"))
		values := req.Header.Values(header)
		if len(values) == 0 {
			return "", false
		}
		return strings.Join(values, ", "), true
	}
	return "", false
}

func (r *ginRequest) Query(name string) string { return r.c.Query(name) }

func (r *ginRequest) Cookie(name string) (string, bool) {
	v, err := r.c.Cookie(name)
	if err != nil {
		return "", false
	}
	return v, true
}

func (r *ginRequest) SetCookie(name, value string, maxAge time.Duration) {
	r.c.SetSameSite(http.SameSiteLaxMode)
	r.c.SetCookie(name, value, int(maxAge/time.Second), "/", "", r.c.Request.TLS != nil, false)
}

// An HTTP request is never a console request.
func (r *ginRequest) IsConsole() bool { return false }

func (r *ginRequest) IsControlPanel() bool {
	if r.cpTrigger == "" {
		return false
	}
	prefix := "/" + r.cpTrigger
	path := r.c.Request.URL.Path
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func (r *ginRequest) IsLivePreview() bool {
	for _, p := range livePreviewParams {
		if _, ok := r.c.GetQuery(p); ok {
			return true
		}
	}
	return false
}

func (r *ginRequest) Session() analytics.Session {
	user, _ := CurrentUser(r.c)
	return userSession{user: user}
}

type userSession struct {
	user *models.User
}

func (s userSession) IsLoggedIn() bool { return s.user != nil }
func (s userSession) IsAdmin() bool    { return s.user != nil && s.user.Admin }
func (s userSession) InGroup(handle string) bool {
	return s.user != nil && s.user.InGroup(handle)
}
