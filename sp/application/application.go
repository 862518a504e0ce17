package application

import (
	"context"
	"net/http"

	"github.com/bertrandmartel/sessionbridge/sp/codestore"
	"github.com/bertrandmartel/sessionbridge/sp/config"
	"github.com/bertrandmartel/sessionbridge/sp/idp"
	"github.com/bertrandmartel/sessionbridge/sp/jwt"
	"github.com/bertrandmartel/sessionbridge/sp/session"
)

// SessionBridgeApp is everything the handshake handlers need from the web framework and
// the process wiring. The c arguments are the framework's per-request context.
type SessionBridgeApp interface {
	GetConfig() *config.Config
	GetCodec() *jwt.Codec
	GetIdentityProvider() idp.Provider
	GetCodeStore() codestore.Store
	GetCookiePolicy() session.Policy
	GetRequestContext(c interface{}) context.Context
	SetCookie(c interface{}, cookie *http.Cookie)
	GetCookie(c interface{}, name string) (string, error)
	SetIdentityContext(c interface{}, a *jwt.Assertion)
	GetIdentityContext(c interface{}) *jwt.Assertion
	Redirect(c interface{}, location string) error
	RenderFailure(c interface{}) error
}
