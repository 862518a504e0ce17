package session

import (
	"net/http"
	"net/url"
	"time"
)

const JWTCookie = "jwt"

// NameCookie carries the subject for display, percent-encoded the way encodeURIComponent
// does it (decode with url.PathUnescape). It is not signed and must never be used to
// decide who the caller is; only the JWTCookie assertion is trusted.
const NameCookie = "name"

// MaxAge matches the token lifetime, in seconds.
const MaxAge = 7 * 24 * 3600

// Policy is the attribute set shared by both session cookies. Clearing must reuse the
// exact same attributes or browsers keep the cookie.
type Policy struct {
	Path     string
	SameSite http.SameSite
	Secure   bool
	MaxAge   int
}

func DefaultPolicy() Policy {
	return Policy{
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   true,
		MaxAge:   MaxAge,
	}
}

// InsecurePolicy drops the Secure flag, for local development over plain http.
func InsecurePolicy() Policy {
	p := DefaultPolicy()
	p.Secure = false
	return p
}

func (p Policy) cookie(name string, value string, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		SameSite: p.SameSite,
		Secure:   p.Secure,
		HttpOnly: httpOnly,
		MaxAge:   p.MaxAge,
	}
}

// Issue returns the jwt and name cookies for a freshly signed session. Both must be
// written to the same response.
func (p Policy) Issue(subject string, token string) []*http.Cookie {
	return []*http.Cookie{
		p.cookie(JWTCookie, token, true),
		p.cookie(NameCookie, url.PathEscape(subject), false),
	}
}

// Clear returns both cookies expired immediately.
func (p Policy) Clear() []*http.Cookie {
	cookies := p.Issue("", "")
	for _, c := range cookies {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	}
	return cookies
}
