package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/bertrandmartel/sessionbridge/sp/codestore"
	"github.com/bertrandmartel/sessionbridge/sp/config"
	"github.com/bertrandmartel/sessionbridge/sp/idp"
	"github.com/bertrandmartel/sessionbridge/sp/jwt"
	"github.com/bertrandmartel/sessionbridge/sp/session"
	"github.com/go-redis/redis/v7"
	"github.com/labstack/echo/v4"
)

const (
	HomePage    = "index.html"
	StyleSheet  = "index.css"
	FailurePage = "failed.html"
)

const identityKey = "identity"

// SessionBridge is the echo implementation of application.SessionBridgeApp.
type SessionBridge struct {
	Config   *config.Config
	Codec    *jwt.Codec
	Provider idp.Provider
	Store    codestore.Store
	Policy   session.Policy
}

// FromConfig wires the codec, identity provider client and code store described by cfg.
func FromConfig(cfg *config.Config) (*SessionBridge, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	codec, err := jwt.NewCodec([]byte(cfg.Secret), jwt.WithIssuer(cfg.PublicURL))
	if err != nil {
		return nil, err
	}
	store, err := newCodeStore(cfg.CodeStore)
	if err != nil {
		return nil, err
	}
	var httpClient = &http.Client{
		Timeout: time.Duration(cfg.IdentityProvider.VerifyTimeout),
	}
	policy := session.DefaultPolicy()
	if cfg.Cookies.Insecure {
		policy = session.InsecurePolicy()
	}
	return &SessionBridge{
		Config:   cfg,
		Codec:    codec,
		Provider: idp.New(cfg.IdentityProvider.URL, cfg.IdentityProvider.ClientName, httpClient),
		Store:    store,
		Policy:   policy,
	}, nil
}

func newCodeStore(cfg config.CodeStore) (codestore.Store, error) {
	ttl := time.Duration(cfg.TTL)
	switch cfg.Kind {
	case config.CodeStoreNone:
		return codestore.Nop(), nil
	case config.CodeStoreRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		return codestore.Redis(redisClient, "sessionbridge:code:", ttl), nil
	case config.CodeStoreMemory, "":
		return codestore.Memory(ttl)
	}
	return nil, fmt.Errorf("unknown code store %q", cfg.Kind)
}

func (app *SessionBridge) Close() error {
	return app.Store.Close()
}

func (app *SessionBridge) GetConfig() *config.Config {
	return app.Config
}
func (app *SessionBridge) GetCodec() *jwt.Codec {
	return app.Codec
}
func (app *SessionBridge) GetIdentityProvider() idp.Provider {
	return app.Provider
}
func (app *SessionBridge) GetCodeStore() codestore.Store {
	return app.Store
}
func (app *SessionBridge) GetCookiePolicy() session.Policy {
	return app.Policy
}
func (app *SessionBridge) GetRequestContext(c interface{}) context.Context {
	return c.(echo.Context).Request().Context()
}
func (app *SessionBridge) SetCookie(c interface{}, cookie *http.Cookie) {
	c.(echo.Context).SetCookie(cookie)
}
func (app *SessionBridge) GetCookie(c interface{}, name string) (string, error) {
	cookie, err := c.(echo.Context).Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
func (app *SessionBridge) SetIdentityContext(c interface{}, a *jwt.Assertion) {
	c.(echo.Context).Set(identityKey, a)
}
func (app *SessionBridge) GetIdentityContext(c interface{}) *jwt.Assertion {
	a, _ := c.(echo.Context).Get(identityKey).(*jwt.Assertion)
	return a
}
func (app *SessionBridge) Redirect(c interface{}, location string) error {
	return c.(echo.Context).Redirect(http.StatusFound, location)
}
func (app *SessionBridge) RenderFailure(c interface{}) error {
	return app.renderAsset(c.(echo.Context), FailurePage)
}

func (app *SessionBridge) renderAsset(c echo.Context, name string) error {
	return c.File(filepath.Join(app.Config.AssetsDir, name))
}
