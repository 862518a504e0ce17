package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtgo "github.com/dgrijalva/jwt-go"
	uuid "github.com/satori/go.uuid"
)

// SessionTTL is the lifetime of every token minted by a Codec.
const SessionTTL = 7 * 24 * time.Hour

const (
	JwtErrorSessionExpired = "SESSION_EXPIRED"
	JwtErrorUnauthorized   = "UNAUTHORIZED"
	JwtErrorValidation     = "JWT_VALIDATION_ERROR"
	JwtErrorTokenParse     = "JWT_TOKEN_PARSE_ERROR"
)

var (
	// ErrEmptySecret is returned by NewCodec when no signing secret is given.
	ErrEmptySecret = errors.New("signing secret is empty")
	// ErrEmptySubject is returned by Sign when the subject is blank.
	ErrEmptySubject = errors.New("subject is empty")

	errExpired        = errors.New("token is expired")
	errMissingExpiry  = errors.New("exp field is missing")
	errMissingSubject = errors.New("name field is missing")
)

// Assertion is the identity carried by a valid token.
type Assertion struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Result is the outcome of Verify. Every failure collapses into an invalid result;
// Reason and Err are only meant for logs.
type Result struct {
	Assertion Assertion
	reason    string
	err       error
}

// Invalid is the zero-information failed verification.
var Invalid = Result{reason: JwtErrorUnauthorized, err: errors.New("no token")}

func (r Result) Valid() bool {
	return r.reason == ""
}

func (r Result) Reason() string {
	return r.reason
}

func (r Result) Err() error {
	return r.err
}

func invalid(reason string, err error) Result {
	return Result{reason: reason, err: err}
}

// sessionClaims keeps the `name` claim the original tokens used next to the registered ones.
type sessionClaims struct {
	Name string `json:"name"`
	jwtgo.StandardClaims

	now func() time.Time
}

func (c *sessionClaims) Valid() error {
	if c.ExpiresAt == 0 {
		return errMissingExpiry
	}
	if c.now().Unix() >= c.ExpiresAt {
		return errExpired
	}
	if c.subject() == "" {
		return errMissingSubject
	}
	return nil
}

func (c *sessionClaims) subject() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Subject
}

type Option func(*Codec)

// WithClock replaces time.Now, for signing and for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithIssuer sets the iss claim of minted tokens.
func WithIssuer(issuer string) Option {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// Codec signs and verifies HS256 session tokens with one process-wide secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	c := &Codec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Sign mints a token for subject expiring SessionTTL from now.
func (c *Codec) Sign(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", ErrEmptySubject
	}
	issuedAt := c.now()
	claims := &sessionClaims{
		Name: subject,
		StandardClaims: jwtgo.StandardClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			Id:        uuid.NewV4().String(),
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: issuedAt.Add(SessionTTL).Unix(),
		},
	}
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (c *Codec) keyFunc(token *jwtgo.Token) (interface{}, error) {
	if token.Method != jwtgo.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return c.secret, nil
}

// Verify decodes token. Absent, malformed, forged and expired tokens all yield an
// invalid Result.
func (c *Codec) Verify(token string) Result {
	if token == "" {
		return Invalid
	}
	claims := &sessionClaims{now: c.now}
	_, err := jwtgo.ParseWithClaims(token, claims, c.keyFunc)
	if err != nil {
		var vErr *jwtgo.ValidationError
		if errors.As(err, &vErr) {
			switch {
			case vErr.Inner == errExpired:
				return invalid(JwtErrorSessionExpired, err)
			case vErr.Errors&jwtgo.ValidationErrorClaimsInvalid != 0:
				return invalid(JwtErrorValidation, err)
			}
		}
		return invalid(JwtErrorTokenParse, err)
	}
	return Result{
		Assertion: Assertion{
			Subject:   claims.subject(),
			ID:        claims.Id,
			IssuedAt:  time.Unix(claims.IssuedAt, 0),
			ExpiresAt: time.Unix(claims.ExpiresAt, 0),
		},
	}
}
