// Package common contains shared constants and sentinel errors used across
// the message board server.
package common

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session_id"

// SessionTokenSize is the number of random bytes behind a session token.
const SessionTokenSize = 32
