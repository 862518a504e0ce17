// Package codestore remembers which one-time codes were already exchanged, so a code that
// comes back (browser refresh, replay) is never sent to the identity provider twice.
package codestore

import (
	"context"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

type Store interface {
	// Claim reports true the first time code is seen within the store's TTL.
	Claim(ctx context.Context, code string) (bool, error)
	Close() error
}

// key avoids keeping raw codes around.
func key(code string) string {
	return strconv.FormatUint(xxhash.Sum64String(code), 16)
}

type nop struct{}

// Nop accepts every code.
func Nop() Store {
	return nop{}
}

func (nop) Claim(context.Context, string) (bool, error) {
	return true, nil
}

func (nop) Close() error {
	return nil
}
