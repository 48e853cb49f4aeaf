package analytics

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_PageViewTrackingURL(t *testing.T) {
	svc := NewService(enabledSettings(), &fakeSender{})

	got := svc.PageViewTrackingURL("https://example.com/a b?x=1&y=2", "Hello & welcome")
	assert.Equal(t,
		"/actions/instant-analytics/track-page-view-url?url=https%3A%2F%2Fexample.com%2Fa+b%3Fx%3D1%26y%3D2&title=Hello+%26+welcome",
		got)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a b?x=1&y=2", u.Query().Get("url"))
	assert.Equal(t, "Hello & welcome", u.Query().Get("title"))
}

func TestService_EventTrackingURL(t *testing.T) {
	svc := NewService(enabledSettings(), &fakeSender{}, WithActionBase("https://shop.example.com/actions/ia/"))

	got := svc.EventTrackingURL("/pdf/menu.pdf", "Downloads", "PDF", "menu", 3)
	assert.Equal(t,
		"https://shop.example.com/actions/ia/track-event-url?url=%2Fpdf%2Fmenu.pdf&eventCategory=Downloads&eventAction=PDF&eventLabel=menu&eventValue=3",
		got)
}
