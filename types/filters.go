package types

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidFilters is the sentinel for filter construction failures.
// Use errors.Is(err, ErrInvalidFilters) for typed assertions.
var ErrInvalidFilters = errors.New("invalid filters")

// earthRadiusKM is the mean Earth radius used for great-circle distance.
const earthRadiusKM = 6371.0

// coordTolerance is the absolute tolerance for radius-less coordinate matches.
const coordTolerance = 1e-6

// Predicate is a caller-supplied filter leaf evaluated against a candidate
// proxy. It must be deterministic and side-effect-free: selector correctness
// depends on stable evaluation across repeated calls.
type Predicate func(*Proxy) bool

// Filters is a composable filter expression tree evaluated against proxies.
//
// Scalar leaves compare for equality; the geo leaf matches proxies within
// RadiusKM of (Latitude, Longitude); AllOf/AnyOf/NoneOf combine child
// expressions. The zero value matches every proxy.
type Filters struct {
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	ISP     string `json:"isp,omitempty" yaml:"isp,omitempty"`
	ASN     *int   `json:"asn,omitempty" yaml:"asn,omitempty"`

	// Geo leaf. Latitude and Longitude must be provided together;
	// RadiusKM additionally requires both.
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	RadiusKM  *float64 `json:"radius_km,omitempty" yaml:"radius_km,omitempty"`

	AllOf  []*Filters `json:"all_of,omitempty" yaml:"all_of,omitempty"`
	AnyOf  []*Filters `json:"any_of,omitempty" yaml:"any_of,omitempty"`
	NoneOf []*Filters `json:"none_of,omitempty" yaml:"none_of,omitempty"`

	// Predicate is evaluated last among sibling leaves.
	Predicate Predicate `json:"-" yaml:"-"`
}

// NewGeoFilter constructs a validated geo-radius filter.
func NewGeoFilter(latitude, longitude, radiusKM float64) (*Filters, error) {
	f := &Filters{
		Latitude:  &latitude,
		Longitude: &longitude,
		RadiusKM:  &radiusKM,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks the expression tree for construction-time invariants:
// a geo leaf with only a subset of {latitude, longitude, radius} is invalid.
// A nil receiver is valid (no filtering).
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}

	if (f.Latitude == nil) != (f.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be provided together", ErrInvalidFilters)
	}
	if f.RadiusKM != nil {
		if f.Latitude == nil || f.Longitude == nil {
			return fmt.Errorf("%w: latitude and longitude must be provided when radius_km is set", ErrInvalidFilters)
		}
		if *f.RadiusKM <= 0 {
			return fmt.Errorf("%w: radius_km must be positive, got %g", ErrInvalidFilters, *f.RadiusKM)
		}
	}

	for _, group := range [][]*Filters{f.AllOf, f.AnyOf, f.NoneOf} {
		for _, child := range group {
			if err := child.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Matches reports whether the proxy satisfies the expression. Pure: it does
// not mutate the proxy or the filter tree. A nil receiver matches everything.
func (f *Filters) Matches(proxy *Proxy) bool {
	if f == nil {
		return true
	}

	if !f.matchesScalars(proxy) {
		return false
	}
	if f.Predicate != nil && !f.Predicate(proxy) {
		return false
	}

	// AND stops at the first false.
	for _, child := range f.AllOf {
		if !child.Matches(proxy) {
			return false
		}
	}

	// OR stops at the first true.
	if len(f.AnyOf) > 0 {
		matched := false
		for _, child := range f.AnyOf {
			if child.Matches(proxy) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	// NONE-of negates an implicit OR.
	for _, child := range f.NoneOf {
		if child.Matches(proxy) {
			return false
		}
	}

	return true
}

func (f *Filters) matchesScalars(proxy *Proxy) bool {
	if f.Source != "" && proxy.Source != f.Source {
		return false
	}
	if f.Country != "" && proxy.Country != f.Country {
		return false
	}
	if f.City != "" && proxy.City != f.City {
		return false
	}
	if f.ISP != "" && proxy.ISP != f.ISP {
		return false
	}
	if f.ASN != nil && proxy.ASN != *f.ASN {
		return false
	}
	return f.matchesGeo(proxy)
}

func (f *Filters) matchesGeo(proxy *Proxy) bool {
	if f.Latitude == nil || f.Longitude == nil {
		return true
	}
	if proxy.Latitude == nil || proxy.Longitude == nil {
		return false
	}
	if f.RadiusKM == nil {
		// Radius-less geo leaf: near-exact coordinate equality.
		return math.Abs(*proxy.Latitude-*f.Latitude) <= coordTolerance &&
			math.Abs(*proxy.Longitude-*f.Longitude) <= coordTolerance
	}
	return haversineKM(*f.Latitude, *f.Longitude, *proxy.Latitude, *proxy.Longitude) <= *f.RadiusKM
}

// haversineKM computes the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lon1r := lon1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	lon2r := lon2 * math.Pi / 180

	dlat := lat2r - lat1r
	dlon := lon2r - lon1r

	a := math.Pow(math.Sin(dlat/2), 2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Pow(math.Sin(dlon/2), 2)
	return earthRadiusKM * 2 * math.Asin(math.Sqrt(a))
}
