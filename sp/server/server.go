package server

import (
	"io"
	"net/http"

	"github.com/bertrandmartel/sessionbridge/sp/application"
	"github.com/bertrandmartel/sessionbridge/sp/handlers/auth"
	"github.com/bertrandmartel/sessionbridge/sp/logutil"
	"github.com/bertrandmartel/sessionbridge/sp/middleware"
	"github.com/labstack/echo/v4"
	mw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"gopkg.in/go-playground/validator.v9"
)

var _ application.SessionBridgeApp = (*SessionBridge)(nil)

type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func SendError(errorMessage string, errorDescription string) *ErrorResponse {
	return &ErrorResponse{
		Error:            errorMessage,
		ErrorDescription: errorDescription,
	}
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New builds the echo instance serving the landing page, the stylesheet and the
// handshake routes. Access logs go to accessLog.
func New(app *SessionBridge, logger zerolog.Logger, accessLog io.Writer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	UseCommonMiddleware(e, logger, accessLog)
	routes(e, app)
	return e
}

func routes(e *echo.Echo, app *SessionBridge) {
	var bridge application.SessionBridgeApp = app
	e.Use(bindApp(&bridge))

	e.GET("/", func(c echo.Context) error {
		return app.renderAsset(c, HomePage)
	})
	e.GET("/index.css", func(c echo.Context) error {
		return app.renderAsset(c, StyleSheet)
	})
	e.GET("/auth", func(c echo.Context) error {
		request, err := bindRequest(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, SendError("invalid_request", "incorrect parameters"))
		}
		return auth.Authenticate(c, request, bridge)
	}, MWIdentity)
	e.GET("/logout", func(c echo.Context) error {
		request := new(auth.LogoutRequest)
		if err := c.Bind(request); err != nil {
			log := logutil.GetOrDefault(c.Request().Context())
			log.Debug().Err(err).Msg("Ignoring logout parameters")
			request = nil
		}
		return auth.Logout(c, request, bridge)
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

func bindRequest(c echo.Context) (*auth.Request, error) {
	request := new(auth.Request)
	if err := c.Bind(request); err != nil {
		return nil, err
	}
	if err := c.Validate(request); err != nil {
		return nil, err
	}
	return request, nil
}

func bindApp(app *application.SessionBridgeApp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("application", app)
			return next(c)
		}
	}
}

// MWIdentity puts the verified session, if any, in the echo context.
func MWIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		app := c.Get("application").(*application.SessionBridgeApp)
		middleware.UseIdentity(c, *app)
		return next(c)
	}
}

// MWLogger attaches a request scoped zerolog logger to the request context.
func MWLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logger.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("path", req.URL.Path).
				Logger()
			c.SetRequest(req.WithContext(logutil.WithLogger(req.Context(), l)))
			return next(c)
		}
	}
}

func UseCommonMiddleware(e *echo.Echo, logger zerolog.Logger, accessLog io.Writer) {
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mw.RequestID())
	e.Use(mw.LoggerWithConfig(mw.LoggerConfig{
		Format: "${remote_ip} - - ${time_rfc3339_nano} \"${method} ${uri} ${protocol}\" ${status} ${bytes_out} \"${referer}\" \"${user_agent}\"\n",
		Output: accessLog,
	}))
	e.Use(mw.Recover())
	e.Use(MWLogger(logger))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); !ok || he.Code >= http.StatusInternalServerError {
			log := logutil.GetOrDefault(c.Request().Context())
			log.Error().Err(err).Msg("Request failed")
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}
