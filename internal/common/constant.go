package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// session token on outbound requests.
const AccessTokenHeaderName = "access_token"

// VerificationTokenSize is the number of random bytes behind a verification
// token. The hex-encoded token is twice as long.
const VerificationTokenSize = 32
