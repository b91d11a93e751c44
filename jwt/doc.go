// Package jwt reads timing claims from access tokens the identity provider
// hands to the client.
//
// Clients never hold the provider's verification key, so tokens are parsed
// without signature verification. The claims are used for scheduling only
// (when to refresh), never for authorization decisions.
//
// # What this package must NOT do
//
//   - Treat an unverified claim as proof of identity.
//   - Import goSession or session.
package jwt
