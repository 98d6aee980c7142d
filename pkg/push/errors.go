package push

import "errors"

var (
	// ErrTokenRequired is returned when a registration arrives without a token.
	ErrTokenRequired = errors.New("token is required")

	// ErrNotFound is returned when a referenced notification does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoTokens is returned when an operation requires the user to have at
	// least one registered device and none exist.
	ErrNoTokens = errors.New("no device tokens registered")

	// ErrInvalidToken marks a gateway failure as permanent: the token is dead
	// and must be pruned everywhere it is registered. Gateways wrap their
	// provider-specific rejections with this sentinel.
	ErrInvalidToken = errors.New("device token no longer valid")
)
