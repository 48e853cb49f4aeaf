package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	GACookie       = "_ga"
	IdentityCookie = "_ia"
	ClickIDCookie  = "gclid"
	ClickIDParam   = "gclid"

	IdentityCookieTTL = 730 * 24 * time.Hour
	ClickIDCookieTTL  = 10 * 365 * 24 * time.Hour
)

var ErrMalformedGACookie = errors.New("malformed _ga cookie")

// ParseGACookie extracts the client id from a _ga value of the form
// version.domainDepth.cid1.cid2.
func ParseGACookie(value string) (string, error) {
	parts := strings.SplitN(value, ".", 4)
	if len(parts) < 4 {
		return "", fmt.Errorf("%w: %q", ErrMalformedGACookie, value)
	}
	return parts[2] + "." + parts[3], nil
}

// ResolveClientID picks the visitor's client id from _ga, then _ia, and mints
// a v4 UUID when neither is usable. The result is always written back to the
// _ia cookie.
func ResolveClientID(req Request, log *zap.Logger) string {
	var cid string
	if ga, ok := req.Cookie(GACookie); ok {
		parsed, err := ParseGACookie(ga)
		if err != nil {
			log.Info("ignoring _ga cookie", zap.Error(err))
		} else {
			cid = parsed
		}
	}
	if cid == "" {
		if ia, ok := req.Cookie(IdentityCookie); ok && ia != "" {
			cid = ia
		}
	}
	if cid == "" {
		cid = uuid.NewString()
	}
	req.SetCookie(IdentityCookie, cid, IdentityCookieTTL)
	return cid
}

// ResolveClickID returns the gclid query parameter, persisting it when set.
func ResolveClickID(req Request) string {
	gclid := req.Query(ClickIDParam)
	if gclid != "" {
		req.SetCookie(ClickIDCookie, gclid, ClickIDCookieTTL)
	}
	return gclid
}
