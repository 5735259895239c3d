package common

const (
	// AccessTokenHeaderName is the gRPC metadata key used to carry the
	// access token on outbound requests.
	AccessTokenHeaderName = "access_token"

	// AuthorizationHeaderName is accepted as an alternative carrier in the
	// "Bearer <token>" form.
	AuthorizationHeaderName = "authorization"

	// RefreshTokenSize is the number of random bytes behind a refresh token.
	RefreshTokenSize = 32
)
