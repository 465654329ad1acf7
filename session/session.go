package session

// Credentials is the token pair issued at login. The access token is the
// short-lived credential attached to API requests; the refresh token is the
// long-lived credential exchanged for a new access token when the old one
// expires. The two are always written together and cleared together: an
// access token never exists in storage without its refresh token.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Empty reports whether no credentials are held at all.
func (c Credentials) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// User is the identity triple persisted alongside the tokens so a session can
// be bootstrapped without a network round trip.
type User struct {
	ID       string
	Username string
	Role     string
}
