package analytics

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseGACookie(t *testing.T) {
	cid, err := ParseGACookie("1.2.111.222")
	require.NoError(t, err)
	assert.Equal(t, "111.222", cid)

	cid, err = ParseGACookie("GA1.2.111.222.333")
	require.NoError(t, err)
	assert.Equal(t, "111.222.333", cid)

	_, err = ParseGACookie("GA1.2.111")
	assert.ErrorIs(t, err, ErrMalformedGACookie)
}

func TestResolveClientID_FromGACookie(t *testing.T) {
	req := newFakeRequest()
	req.cookies[GACookie] = "1.2.111.222"
	req.cookies[IdentityCookie] = "stale"

	cid := ResolveClientID(req, zap.NewNop())

	assert.Equal(t, "111.222", cid)
	assert.Equal(t, setCookie{value: "111.222", maxAge: IdentityCookieTTL}, req.set[IdentityCookie])
}

func TestResolveClientID_ReusesIdentityCookie(t *testing.T) {
	req := newFakeRequest()
	req.cookies[IdentityCookie] = "abc-123"

	assert.Equal(t, "abc-123", ResolveClientID(req, zap.NewNop()))
	assert.Equal(t, "abc-123", req.set[IdentityCookie].value)
}

func TestResolveClientID_MintsStableUUID(t *testing.T) {
	first := newFakeRequest()
	cid := ResolveClientID(first, zap.NewNop())

	require.Len(t, cid, 36)
	parsed, err := uuid.Parse(cid)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
	assert.Equal(t, cid, first.set[IdentityCookie].value)

	second := newFakeRequest()
	second.cookies[IdentityCookie] = first.set[IdentityCookie].value
	assert.Equal(t, cid, ResolveClientID(second, zap.NewNop()))
}

func TestResolveClientID_MalformedGACookieFallsThrough(t *testing.T) {
	req := newFakeRequest()
	req.cookies[GACookie] = "garbage"
	req.cookies[IdentityCookie] = "kept"

	assert.Equal(t, "kept", ResolveClientID(req, zap.NewNop()))

	req = newFakeRequest()
	req.cookies[GACookie] = "GA1.2"
	_, err := uuid.Parse(ResolveClientID(req, zap.NewNop()))
	assert.NoError(t, err)
}

func TestResolveClientID_EmptyIdentityCookieIsIgnored(t *testing.T) {
	req := newFakeRequest()
	req.cookies[IdentityCookie] = ""

	cid := ResolveClientID(req, zap.NewNop())
	assert.Len(t, cid, 36)
}

func TestResolveClickID(t *testing.T) {
	req := newFakeRequest()
	assert.Empty(t, ResolveClickID(req))
	assert.NotContains(t, req.set, ClickIDCookie)

	req.query[ClickIDParam] = "Cj0KCQ"
	assert.Equal(t, "Cj0KCQ", ResolveClickID(req))
	assert.Equal(t, setCookie{value: "Cj0KCQ", maxAge: ClickIDCookieTTL}, req.set[ClickIDCookie])
}
