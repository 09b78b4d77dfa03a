// Package identity resolves the opaque identity token the connection
// endpoint receives before upgrade into a player id and display name,
// standing in for the platform's identity/OAuth service, which lives
// outside this process.
package identity

import (
	"fmt"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"

	"github.com/Talkashi1111/ft-transcendence-sub000/matcherr"
)

// Identity is the resolved player behind a connection.
type Identity struct {
	PlayerID string
	Username string
}

// Verifier resolves an opaque token into an Identity, or returns an
// AuthError if the token cannot be trusted.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// JWTVerifier checks HS256-signed tokens carrying subject and display-name
// claims, the same claim shape the platform's identity service issues at
// login (out of scope here; this package only verifies).
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

func (v *JWTVerifier) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "missing identity token")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "identity token invalid")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "identity token claims malformed")
	}

	if v.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != v.issuer {
			return Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "identity token issuer mismatch")
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, matcherr.NewAuth(matcherr.CodeNoIdentity, "identity token missing subject")
	}
	name, _ := claims["name"].(string)
	if name == "" {
		name = sub
	}

	return Identity{PlayerID: sub, Username: name}, nil
}

// IssueForTests mints a token in the same shape JWTVerifier expects, used
// only by tests and local development to avoid a real identity service.
func IssueForTests(secret, issuer, playerID, username string) (string, error) {
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": playerID,
		"name": username,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
