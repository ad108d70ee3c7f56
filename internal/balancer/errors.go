package balancer

import "errors"

// ErrInsufficientPlayers is returned when a pool cannot be split into two
// teams. No partial result accompanies it.
var ErrInsufficientPlayers = errors.New("at least 2 players are required to balance teams")

// ErrPoolTooLarge is returned by the exhaustive balancer when the pool
// exceeds the configured enumeration bound.
var ErrPoolTooLarge = errors.New("player pool too large for exhaustive search")
