package middleware

import (
	"github.com/bertrandmartel/sessionbridge/sp/application"
	"github.com/bertrandmartel/sessionbridge/sp/logutil"
	"github.com/bertrandmartel/sessionbridge/sp/session"
)

// UseIdentity verifies the jwt cookie and, when valid, stores the assertion in the
// request context. The name cookie is never consulted.
func UseIdentity(context interface{}, app application.SessionBridgeApp) {
	cookie, err := app.GetCookie(context, session.JWTCookie)
	if err != nil {
		return
	}
	res := app.GetCodec().Verify(cookie)
	if !res.Valid() {
		log := logutil.GetOrDefault(app.GetRequestContext(context))
		log.Debug().Str("reason", res.Reason()).Err(res.Err()).Msg("Ignoring session cookie")
		return
	}
	assertion := res.Assertion
	app.SetIdentityContext(context, &assertion)
}

func UseClearSession(context interface{}, app application.SessionBridgeApp) {
	for _, c := range app.GetCookiePolicy().Clear() {
		app.SetCookie(context, c)
	}
}
