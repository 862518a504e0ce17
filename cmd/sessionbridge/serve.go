package main

import (
	"os"

	"github.com/bertrandmartel/sessionbridge/sp/config"
	"github.com/bertrandmartel/sessionbridge/sp/httpserver"
	"github.com/bertrandmartel/sessionbridge/sp/logutil"
	"github.com/bertrandmartel/sessionbridge/sp/server"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	var configPath string
	var bindAddr string
	secretVar := config.SecretEnvVar
	var console bool
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the session bridge HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to a JSON config file, environment variables take precedence",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:        "bind",
				Usage:       "Address to bind, defaults to the configured port on all interfaces",
				Destination: &bindAddr,
			},
			&cli.StringFlag{
				Name:        "secret-envvar-name",
				Usage:       "Name of the environment variable that holds the signing secret. The secret itself should not be passed as an argument",
				Value:       secretVar,
				Destination: &secretVar,
			},
			&cli.BoolFlag{
				Name:        "console",
				Usage:       "Human readable logs instead of JSON",
				Destination: &console,
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(configPath, secretVar)
			if err != nil {
				return err
			}
			logger := logutil.New(os.Stderr, cfg.LogLevel)
			if console {
				logger = logutil.Console(os.Stderr, cfg.LogLevel)
			}
			logger.Info().
				Str("version", cfg.Version).
				Str("public_url", cfg.PublicURL).
				Str("identity_provider", cfg.IdentityProvider.URL).
				Str("code_store", cfg.CodeStore.Kind).
				Msg("Configuration loaded")

			app, err := server.FromConfig(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if bindAddr == "" {
				bindAddr = cfg.BindAddress()
			}
			l, err := httpserver.Listen(bindAddr)
			if err != nil {
				logger.Error().Err(err).Str("bind", bindAddr).Msg("Unable to bind")
				return err
			}
			logger.Info().Str("addr", l.Addr().String()).Msg("Listening")
			handler := server.New(app, logger, os.Stdout)
			return httpserver.Serve(logutil.WithLogger(ctx.Context, logger), l, handler)
		},
	}
}
