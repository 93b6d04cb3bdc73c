package auth

import "errors"

var (
	// ErrUnauthorized indicates no usable credential was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken indicates a token failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenReuse indicates a refresh token was presented after it had
	// already been rotated or revoked.
	ErrTokenReuse = errors.New("refresh token reused")
)
