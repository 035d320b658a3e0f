// Package selector implements the proxy selection strategies.
//
// Strategies are pure: they order and pick from a candidate slice without
// mutating it. Persistence of the round-robin cursor belongs to the storage
// adapter; this package only computes the next selection given the cursor.
package selector

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/justapithecus/pharos/types"
)

// Eligible returns the candidates that are leasable (status active or slow,
// spare capacity) and satisfy the filter expression. Order is preserved.
func Eligible(proxies []*types.Proxy, filters *types.Filters) []*types.Proxy {
	var out []*types.Proxy
	for _, p := range proxies {
		if !p.Leasable() {
			continue
		}
		if !filters.Matches(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Pick selects one candidate using the given strategy. The cursor is the
// identity of the previously selected proxy for round-robin (uuid.Nil when
// no prior selection); it is ignored by the other strategies.
// Returns nil when candidates is empty.
func Pick(strategy types.Strategy, candidates []*types.Proxy, cursor uuid.UUID) (*types.Proxy, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	switch strategy {
	case types.StrategyFirstAvailable, "":
		return FirstAvailable(candidates), nil
	case types.StrategyLeastUsed:
		return LeastUsed(candidates), nil
	case types.StrategyRoundRobin:
		return RoundRobin(candidates, cursor), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}

// FirstAvailable picks the most recently checked candidate, breaking ties
// by ascending identity so repeated runs over equal inputs are deterministic.
func FirstAvailable(candidates []*types.Proxy) *types.Proxy {
	best := candidates[0]
	for _, p := range candidates[1:] {
		if moreRecentlyChecked(p, best) {
			best = p
		}
	}
	return best
}

// LeastUsed picks the candidate with the fewest active leases, breaking ties
// by most recent check, then ascending identity.
func LeastUsed(candidates []*types.Proxy) *types.Proxy {
	best := candidates[0]
	for _, p := range candidates[1:] {
		if p.CurrentLeases < best.CurrentLeases {
			best = p
			continue
		}
		if p.CurrentLeases == best.CurrentLeases && moreRecentlyChecked(p, best) {
			best = p
		}
	}
	return best
}

// RoundRobin picks the first candidate strictly after the cursor in
// ascending-identity order, wrapping to the start when none remain.
// The caller persists the selected identity as the new cursor.
func RoundRobin(candidates []*types.Proxy, cursor uuid.UUID) *types.Proxy {
	ordered := make([]*types.Proxy, len(candidates))
	copy(ordered, candidates)
	sort.Slice(ordered, func(i, j int) bool {
		return idLess(ordered[i].ID, ordered[j].ID)
	})

	for _, p := range ordered {
		if idLess(cursor, p.ID) {
			return p
		}
	}
	// Cursor is at or past the last candidate: wrap.
	return ordered[0]
}

// moreRecentlyChecked reports whether a sorts before b for the recency
// ordering: CheckedAt descending, identity ascending.
func moreRecentlyChecked(a, b *types.Proxy) bool {
	if a.CheckedAt.After(b.CheckedAt) {
		return true
	}
	if a.CheckedAt.Equal(b.CheckedAt) {
		return idLess(a.ID, b.ID)
	}
	return false
}

func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
