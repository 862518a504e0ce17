package httpserver

import (
	"context"
	"io/ioutil"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestServeUntilCancelled(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- Serve(ctx, l, okHandler())
	}()

	res, err := http.Get("http://" + l.Addr().String() + "/")
	require.NoError(t, err)
	body, err := ioutil.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = net.DialTimeout("tcp", l.Addr().String(), time.Second)
	assert.Error(t, err)
}

func TestListenBindFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	_, err = Listen(l.Addr().String())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), l.Addr().String())

	err = ListenAndServe(context.Background(), l.Addr().String(), okHandler())
	assert.Error(t, err)
}

func TestServeClosedListener(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	require.NoError(t, err)
	l.Close()

	done := make(chan error, 1)
	go func() {
		done <- Serve(context.Background(), l, okHandler())
	}()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not report the closed listener")
	}
}
