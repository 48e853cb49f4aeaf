package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"instantanalytics/api/analytics"
	"instantanalytics/api/middleware"
)

// TrackingHandlers serve the callback endpoints and the page view helpers.
type TrackingHandlers struct {
	Service *analytics.Service
	log     *zap.Logger
}

func NewTrackingHandlers(svc *analytics.Service, log *zap.Logger) *TrackingHandlers {
	return &TrackingHandlers{Service: svc, log: log}
}

// TrackPageViewURL sends a page view for the url parameter, then redirects
// the visitor to it.
func (h *TrackingHandlers) TrackPageViewURL(c *gin.Context) {
	rawURL := c.Query("url")
	g := middleware.GatewayFrom(c)
	g.PageView(rawURL, c.Query("title"))
	g.SendPageView(c.Request.Context())

	c.Redirect(http.StatusFound, h.redirectTarget(c, rawURL))
}

// TrackEventURL sends an event built from the query, then redirects the
// visitor to the url parameter.
func (h *TrackingHandlers) TrackEventURL(c *gin.Context) {
	rawURL := c.Query("url")
	g := middleware.GatewayFrom(c)
	hit := g.Event(
		c.Query("eventCategory"),
		c.Query("eventAction"),
		c.Query("eventLabel"),
		analytics.CoerceEventValue(c.Query("eventValue")),
	)
	g.SendEvent(c.Request.Context(), hit)

	c.Redirect(http.StatusFound, h.redirectTarget(c, rawURL))
}

// redirectTarget only follows relative paths and http(s) URLs on the
// requested host. Browsers read a backslash as a slash and drop surrounding
// whitespace, so targets carrying either go to "/" as well.
func (h *TrackingHandlers) redirectTarget(c *gin.Context, rawURL string) string {
	if rawURL == "" {
		return "/"
	}
	if strings.TrimSpace(rawURL) != rawURL || strings.IndexFunc(rawURL, unsafeRedirectRune) >= 0 {
		h.log.Warn("refusing malformed redirect", zap.String("url", rawURL))
		return "/"
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		h.log.Debug("unparseable redirect target", zap.String("url", rawURL), zap.Error(err))
		return "/"
	}
	switch {
	case u.Opaque != "":
		h.log.Warn("refusing opaque redirect", zap.String("url", rawURL))
		return "/"
	case u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https":
		h.log.Warn("refusing non-http redirect", zap.String("url", rawURL))
		return "/"
	case u.Scheme != "" || u.Host != "" || strings.HasPrefix(rawURL, "//"):
		if u.Host == "" || !strings.EqualFold(u.Host, c.Request.Host) {
			h.log.Warn("refusing off-site redirect", zap.String("url", rawURL))
			return "/"
		}
	}
	return rawURL
}

func unsafeRedirectRune(r rune) bool {
	return r == '\\' || r < ' ' || r == 0x7f
}

// PageView builds the request's page view. The analytics middleware sends
// it once the response is complete.
func (h *TrackingHandlers) PageView(c *gin.Context) {
	hit := middleware.GatewayFrom(c).PageView(c.Query("url"), c.Query("title"))
	if hit == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, hit)
}

func (h *TrackingHandlers) TrackingURLs(c *gin.Context) {
	rawURL := c.Query("url")
	c.JSON(http.StatusOK, gin.H{
		"pageView": h.Service.PageViewTrackingURL(rawURL, c.Query("title")),
		"event": h.Service.EventTrackingURL(
			rawURL,
			c.Query("eventCategory"),
			c.Query("eventAction"),
			c.Query("eventLabel"),
			analytics.CoerceEventValue(c.Query("eventValue")),
		),
	})
}
