package idp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startIdentityProvider(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/verifyToken", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("privateCode") {
		case "abc123":
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(Identity{Valid: true, Username: "alice"})
		case "rejected":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"valid":false}`)
		case "broken":
			io.WriteString(w, "hello world\n")
		case "slow":
			time.Sleep(500 * time.Millisecond)
			io.WriteString(w, `{"valid":true,"username":"late"}`)
		default:
			http.Error(w, "401 Unauthorized", http.StatusUnauthorized)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAuthorizeURL(t *testing.T) {
	c := New("https://auth.example.org/", "SkyMod", http.DefaultClient)
	location, err := c.AuthorizeURL("http://localhost:3000/auth?redirect=%2Fhome")
	require.NoError(t, err)

	u, err := url.Parse(location)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "auth.example.org", u.Host)
	assert.Equal(t, "/auth/", u.Path)
	assert.Equal(t, "SkyMod", u.Query().Get("name"))

	callback, err := base64.StdEncoding.DecodeString(u.Query().Get("redirect"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/auth?redirect=%2Fhome", string(callback))

	_, err = New("", "SkyMod", nil).AuthorizeURL("x")
	assert.NotNil(t, err)
}

func TestVerifyCode(t *testing.T) {
	server := startIdentityProvider(t)
	ctx := context.Background()

	//no http client
	_, err := New(server.URL, "SkyMod", nil).VerifyCode(ctx, "abc123")
	assert.NotNil(t, err)
	assert.Equal(t, "no http client specified", err.Error())

	c := New(server.URL, "SkyMod", &http.Client{Timeout: 10 * time.Second})

	identity, err := c.VerifyCode(ctx, "abc123")
	assert.Nil(t, err)
	assert.True(t, identity.Valid)
	assert.Equal(t, "alice", identity.Username)

	identity, err = c.VerifyCode(ctx, "rejected")
	assert.Nil(t, err)
	assert.False(t, identity.Valid)
	assert.Equal(t, "", identity.Username)

	//200 but JSON error
	_, err = c.VerifyCode(ctx, "broken")
	assert.NotNil(t, err)

	//!=200
	_, err = c.VerifyCode(ctx, "unknown")
	assert.NotNil(t, err)
	assert.Equal(t, "received incorrect status : 401", err.Error())
}

func TestVerifyCodeTimeout(t *testing.T) {
	server := startIdentityProvider(t)
	c := New(server.URL, "SkyMod", &http.Client{Timeout: 50 * time.Millisecond})
	_, err := c.VerifyCode(context.Background(), "slow")
	assert.NotNil(t, err)

	c = New(server.URL, "SkyMod", &http.Client{Timeout: 10 * time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.VerifyCode(ctx, "slow")
	assert.NotNil(t, err)
}

func TestVerifyCodeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()
	_, err := New(base, "SkyMod", &http.Client{Timeout: time.Second}).VerifyCode(context.Background(), "abc123")
	assert.NotNil(t, err)
}
