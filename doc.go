// Package auth is a stateless authentication and identity-linking core for a
// multi-tenant user directory. It issues and verifies signed bearer tokens,
// resolves inbound requests into principals, and orchestrates the one-time
// token flows (email verification, password reset, email change) behind
// registration and account recovery.
//
// Persistence, mail delivery, and third-party identity verification are
// treated as capabilities: the package defines the interfaces and ships Bun
// backed repositories plus Google/Facebook verifiers under social/, but any
// implementation satisfying the interfaces will do.
//
// The signing key lives only in process memory. Tokens outstanding across a
// restart become invalid; that is accepted behavior, not a bug.
package auth
