// Package common contains shared constants, sentinel errors and small helpers
// used by both the taskmark client and the reference backend. Callers should
// match errors with errors.Is.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// BearerPrefix prefixes the access token in the realtime Authorization header.
const BearerPrefix = "Bearer "
