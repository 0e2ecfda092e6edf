package govgraph

import "errors"

var (
	// ErrGraphUnavailable is returned when the graph engine cannot be reached.
	ErrGraphUnavailable = errors.New("govgraph: graph engine unavailable")

	// ErrIndexUnavailable is returned when the semantic index cannot be opened.
	ErrIndexUnavailable = errors.New("govgraph: semantic index unavailable")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("govgraph: invalid configuration")
)
