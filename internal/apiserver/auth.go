package apiserver

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"net/http"
)

// AuthFunc authenticates one admin request.
type AuthFunc func(r *http.Request) error

var errUnauthorized = errors.New("invalid credentials")

// denyAll is the fallback when no credentials are configured; the admin
// surface stays closed instead of open.
func denyAll(*http.Request) error {
	return errors.New("admin authentication not configured")
}

// BasicAuth builds an AuthFunc checking HTTP basic credentials. Comparison
// runs over fixed-size digests so its timing does not depend on how much of
// either value matches.
func BasicAuth(username, password string) AuthFunc {
	wantUser := sha256.Sum256([]byte(username))
	wantPass := sha256.Sum256([]byte(password))

	return func(r *http.Request) error {
		user, pass, ok := r.BasicAuth()
		if !ok {
			return errors.New("missing basic auth credentials")
		}
		gotUser := sha256.Sum256([]byte(user))
		gotPass := sha256.Sum256([]byte(pass))
		userOK := subtle.ConstantTimeCompare(gotUser[:], wantUser[:]) == 1
		passOK := subtle.ConstantTimeCompare(gotPass[:], wantPass[:]) == 1
		if !userOK || !passOK {
			return errUnauthorized
		}
		return nil
	}
}
