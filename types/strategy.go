package types

import "fmt"

// Strategy names a selector algorithm used to pick the next proxy.
type Strategy string

const (
	// StrategyFirstAvailable picks the most recently checked eligible proxy.
	// Every storage adapter must support it; it is the default.
	StrategyFirstAvailable Strategy = "first_available"
	// StrategyLeastUsed picks the eligible proxy with the fewest active leases.
	StrategyLeastUsed Strategy = "least_used"
	// StrategyRoundRobin rotates fairly through eligible proxies using a
	// cursor persisted by the storage adapter.
	StrategyRoundRobin Strategy = "round_robin"
)

// Valid reports whether the strategy is a known value.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyFirstAvailable, StrategyLeastUsed, StrategyRoundRobin:
		return true
	}
	return false
}

// ParseStrategy parses a strategy name. An empty string maps to the default
// first_available strategy.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategyFirstAvailable, nil
	}
	strategy := Strategy(s)
	if !strategy.Valid() {
		return "", fmt.Errorf("invalid strategy %q: must be first_available, least_used, or round_robin", s)
	}
	return strategy, nil
}
