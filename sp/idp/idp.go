package idp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Identity is the answer of the verifyToken endpoint.
type Identity struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

// Provider is what the handshake needs from the external identity provider.
type Provider interface {
	AuthorizeURL(callback string) (string, error)
	VerifyCode(ctx context.Context, code string) (Identity, error)
}

type Client struct {
	BaseURL    string
	ClientName string
	HTTPClient *http.Client
}

func New(baseURL string, clientName string, httpClient *http.Client) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		ClientName: clientName,
		HTTPClient: httpClient,
	}
}

// AuthorizeURL is where the browser is sent to log in. callback is passed base64 encoded
// and the provider sends the browser back to it with a privateCode.
func (c *Client) AuthorizeURL(callback string) (string, error) {
	if c.BaseURL == "" {
		return "", errors.New("identity provider url is empty")
	}
	u, err := url.Parse(c.BaseURL + "/auth/")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Add("redirect", base64.StdEncoding.EncodeToString([]byte(callback)))
	q.Add("name", c.ClientName)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// VerifyCode exchanges a one-time code for an identity. It is never retried: the provider
// may invalidate a code on first use.
func (c *Client) VerifyCode(ctx context.Context, code string) (Identity, error) {
	var identity Identity
	if c.HTTPClient == nil {
		return identity, errors.New("no http client specified")
	}
	req, err := http.NewRequest("GET", c.BaseURL+"/api/auth/verifyToken", nil)
	if err != nil {
		return identity, err
	}
	req = req.WithContext(ctx)
	req.Header.Add("Accept", "application/json")

	q := req.URL.Query()
	q.Add("privateCode", code)
	req.URL.RawQuery = q.Encode()

	r, err := c.HTTPClient.Do(req)
	if err != nil {
		return identity, err
	}
	defer r.Body.Close()
	if r.StatusCode != 200 {
		return identity, errors.New("received incorrect status : " + strconv.Itoa(r.StatusCode))
	}
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		return Identity{}, err
	}
	return identity, nil
}
