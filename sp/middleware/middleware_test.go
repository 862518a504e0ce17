package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bertrandmartel/sessionbridge/sp/codestore"
	"github.com/bertrandmartel/sessionbridge/sp/config"
	"github.com/bertrandmartel/sessionbridge/sp/idp"
	"github.com/bertrandmartel/sessionbridge/sp/jwt"
	"github.com/bertrandmartel/sessionbridge/sp/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cookieApp struct {
	codec    *jwt.Codec
	cookies  map[string]*http.Cookie
	identity *jwt.Assertion
}

func (app *cookieApp) GetConfig() *config.Config { return config.Default() }
func (app *cookieApp) GetCodec() *jwt.Codec { return app.codec }
func (app *cookieApp) GetIdentityProvider() idp.Provider { return nil }
func (app *cookieApp) GetCodeStore() codestore.Store { return codestore.Nop() }
func (app *cookieApp) GetCookiePolicy() session.Policy { return session.DefaultPolicy() }
func (app *cookieApp) GetRequestContext(interface{}) context.Context { return context.Background() }
func (app *cookieApp) SetCookie(c interface{}, cookie *http.Cookie) {
	app.cookies[cookie.Name] = cookie
}
func (app *cookieApp) GetCookie(c interface{}, name string) (string, error) {
	if cookie, ok := app.cookies[name]; ok {
		return cookie.Value, nil
	}
	return "", http.ErrNoCookie
}
func (app *cookieApp) SetIdentityContext(c interface{}, a *jwt.Assertion) { app.identity = a }
func (app *cookieApp) GetIdentityContext(c interface{}) *jwt.Assertion { return app.identity }
func (app *cookieApp) Redirect(c interface{}, location string) error { return nil }
func (app *cookieApp) RenderFailure(c interface{}) error { return nil }

func newCookieApp(t *testing.T, now time.Time) *cookieApp {
	codec, err := jwt.NewCodec([]byte("some secret"), jwt.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	return &cookieApp{codec: codec, cookies: map[string]*http.Cookie{}}
}

func TestUseIdentity(t *testing.T) {
	now := time.Now()
	app := newCookieApp(t, now)
	UseIdentity(nil, app)
	assert.Nil(t, app.identity)

	token, err := app.codec.Sign("alice")
	require.NoError(t, err)
	app.cookies[session.JWTCookie] = &http.Cookie{Name: session.JWTCookie, Value: token}
	app.cookies[session.NameCookie] = &http.Cookie{Name: session.NameCookie, Value: "mallory"}
	UseIdentity(nil, app)
	require.NotNil(t, app.identity)
	assert.Equal(t, "alice", app.identity.Subject)
}

func TestUseIdentityIgnoresInvalidToken(t *testing.T) {
	app := newCookieApp(t, time.Now())
	app.cookies[session.JWTCookie] = &http.Cookie{Name: session.JWTCookie, Value: "not.a.token"}
	UseIdentity(nil, app)
	assert.Nil(t, app.identity)

	issued := newCookieApp(t, time.Now().Add(-8*24*time.Hour))
	token, err := issued.codec.Sign("alice")
	require.NoError(t, err)
	app.cookies[session.JWTCookie] = &http.Cookie{Name: session.JWTCookie, Value: token}
	UseIdentity(nil, app)
	assert.Nil(t, app.identity)
}

func TestUseClearSession(t *testing.T) {
	app := newCookieApp(t, time.Now())
	UseClearSession(nil, app)
	assert.Equal(t, 2, len(app.cookies))
	for _, name := range []string{session.JWTCookie, session.NameCookie} {
		assert.Equal(t, "", app.cookies[name].Value)
		assert.True(t, app.cookies[name].MaxAge < 0)
		assert.Equal(t, "/", app.cookies[name].Path)
	}
}
