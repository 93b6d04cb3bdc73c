package graph

import "errors"

// ErrInvalidArgument indicates a malformed id or an edge that is not allowed
// to exist, such as a self-subscription.
var ErrInvalidArgument = errors.New("invalid argument")
