package transport

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether the token carries an exp claim in the past.
// The claim is read without signature verification: the client only uses it
// as a hint to refresh early, the server remains the authority. Tokens that
// don't parse as JWTs or carry no exp are sent as-is.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}
