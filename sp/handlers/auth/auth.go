package auth

import (
	"errors"
	"net/url"
	"strings"

	"github.com/bertrandmartel/sessionbridge/sp/application"
	"github.com/bertrandmartel/sessionbridge/sp/config"
	"github.com/bertrandmartel/sessionbridge/sp/logutil"
	"github.com/bertrandmartel/sessionbridge/sp/middleware"
)

// Request is the query string of /auth.
type Request struct {
	Redirect    string `query:"redirect" validate:"max=2048"`
	PrivateCode string `query:"privateCode" validate:"omitempty,max=512,printascii"`
}

// LogoutRequest is the query string of /logout. It is never validated: logging out
// must not depend on what else the query carries.
type LogoutRequest struct {
	Redirect string `query:"redirect"`
}

var errRejected = errors.New("identity provider rejected the code")
var errReplayed = errors.New("code was already exchanged")

// redirectTarget applies the configured redirect policy. With the relative policy only
// same-origin absolute paths are kept.
func redirectTarget(cfg *config.Config, raw string) string {
	if raw == "" {
		return "/"
	}
	if cfg == nil || cfg.RedirectPolicy != config.RedirectPolicyRelative {
		return raw
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return raw
}

// callbackURL is where the identity provider sends the browser back with a privateCode.
func callbackURL(publicURL string, target string) string {
	q := url.Values{}
	q.Add("redirect", target)
	return strings.TrimSuffix(publicURL, "/") + "/auth?" + q.Encode()
}

// Authenticate drives the handshake for one /auth request:
// an existing valid session goes straight to the target, no code goes to the identity
// provider, a code is exchanged for a new session.
func Authenticate(context interface{}, request *Request, app application.SessionBridgeApp) error {
	if request == nil {
		request = &Request{}
	}
	cfg := app.GetConfig()
	target := redirectTarget(cfg, request.Redirect)

	if identity := app.GetIdentityContext(context); identity != nil {
		return app.Redirect(context, target)
	}
	if request.PrivateCode == "" {
		location, err := app.GetIdentityProvider().AuthorizeURL(callbackURL(cfg.PublicURL, target))
		if err != nil {
			return err
		}
		return app.Redirect(context, location)
	}
	return exchange(context, request.PrivateCode, target, app)
}

func exchange(context interface{}, code string, target string, app application.SessionBridgeApp) error {
	ctx := app.GetRequestContext(context)
	log := logutil.GetOrDefault(ctx)

	username, err := verifyCode(context, code, app)
	if err != nil {
		log.Warn().Err(err).Msg("Authentication failed")
		return app.RenderFailure(context)
	}
	token, err := app.GetCodec().Sign(username)
	if err != nil {
		log.Error().Err(err).Msg("Unable to sign session token")
		return app.RenderFailure(context)
	}
	for _, c := range app.GetCookiePolicy().Issue(username, token) {
		app.SetCookie(context, c)
	}
	log.Info().Str("user", username).Msg("Session issued")
	return app.Redirect(context, target)
}

func verifyCode(context interface{}, code string, app application.SessionBridgeApp) (string, error) {
	ctx := app.GetRequestContext(context)
	fresh, err := app.GetCodeStore().Claim(ctx, code)
	if err != nil {
		return "", err
	}
	if !fresh {
		return "", errReplayed
	}
	identity, err := app.GetIdentityProvider().VerifyCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !identity.Valid || strings.TrimSpace(identity.Username) == "" {
		return "", errRejected
	}
	return identity.Username, nil
}

// Logout clears both session cookies whatever their state and redirects.
func Logout(context interface{}, request *LogoutRequest, app application.SessionBridgeApp) error {
	if request == nil {
		request = &LogoutRequest{}
	}
	middleware.UseClearSession(context, app)
	return app.Redirect(context, redirectTarget(app.GetConfig(), request.Redirect))
}
