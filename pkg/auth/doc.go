// Package auth provides pluggable authentication for datenblick.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// analysis engine. The middleware injects the authenticated identity into
// the request context for handlers that need it.
package auth
