package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"
)

func genSecretCmd() *cli.Command {
	size := 32
	return &cli.Command{
		Name:  "gen-secret",
		Usage: "Print a random signing secret suitable for the SECRET environment variable",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "bytes",
				Usage:       "Number of random bytes",
				Value:       size,
				Destination: &size,
			},
		},
		Action: func(ctx *cli.Context) error {
			if size < 16 {
				return fmt.Errorf("secret must have at least 16 bytes, got %v", size)
			}
			buf := make([]byte, size)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, base64.StdEncoding.EncodeToString(buf))
			return nil
		},
	}
}
