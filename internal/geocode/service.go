package geocode

import (
	"context"
	"strconv"
	"strings"
	"time"

	"panelnorm/domain/panel"
	"panelnorm/internal"
	"panelnorm/ports"
)

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lng float64
}

// LookupTable maps normalized postal codes to coordinates. It is built
// once from the reference dataset and shared read-only across all
// requests; no writer touches it after construction.
type LookupTable map[string]Coordinate

// Stats counts geocoding outcomes per service instance.
type Stats struct {
	PostalMatches int `json:"postal_matches"`
	APICalls      int `json:"api_calls"`
	Failures      int `json:"failures"`
}

// Postal code digit widths per country.
const (
	sgPostalWidth = 6
	myPostalWidth = 5
)

// remoteTimeout bounds every remote geocoding call; a timeout degrades to
// method "failed" and is never retried.
const remoteTimeout = 10 * time.Second

// Service resolves (postal code, address, country) to coordinates: local
// lookup first, remote geocoder as fallback. The lookup table holds
// Singapore data only, so Malaysian requests skip it entirely. Stats are
// accumulated per instance; create one Service per sequential pipeline
// run.
type Service struct {
	lookup LookupTable
	remote ports.RemoteGeocoder
	stats  Stats
}

// New builds a Service around an injected lookup table and an optional
// remote geocoder. A nil remote disables the fallback tier; a nil table
// disables the local tier.
func New(lookup LookupTable, remote ports.RemoteGeocoder) *Service {
	return &Service{lookup: lookup, remote: remote}
}

// Geocode resolves one request. The returned method is "postal_code" for a
// local hit, "address" for a remote hit, and "failed" otherwise;
// coordinates are nil on failure. Remote errors are recorded, never
// propagated.
func (s *Service) Geocode(ctx context.Context, postal, address string, country panel.Country) (lat, lng *float64, method panel.GeocodeMethod) {
	if country != panel.CountryMalaysia {
		if norm := NormalizePostal(postal, country); norm != "" {
			if c, ok := s.lookup[norm]; ok {
				s.stats.PostalMatches++
				return ptr(c.Lat), ptr(c.Lng), panel.GeocodeByPostal
			}
		}
	}

	address = strings.TrimSpace(address)
	if s.remote == nil || address == "" {
		s.stats.Failures++
		return nil, nil, panel.GeocodeFailed
	}

	s.stats.APICalls++
	rctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	la, ln, found, err := s.remote.Geocode(rctx, biasedAddress(address, country), regionHint(country))
	if err != nil || !found {
		if err != nil {
			internal.DefaultLogger.Warn("remote geocode failed for %q: %v", address, err)
		}
		s.stats.Failures++
		return nil, nil, panel.GeocodeFailed
	}
	return ptr(la), ptr(ln), panel.GeocodeByAddress
}

// Stats returns a snapshot of the outcome counters.
func (s *Service) Stats() Stats {
	return s.stats
}

// NormalizePostal folds a raw postal code to lookup form: trims, strips a
// numeric cell's ".0" artifact and an optional country-letter prefix
// ("S123456"), and zero-pads to the country's digit width. Returns "" for
// anything non-numeric.
func NormalizePostal(raw string, country panel.Country) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return ""
	}
	s = strings.TrimSuffix(s, ".0")
	if len(s) > 1 && isLetter(s[0]) {
		s = s[1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return ""
	}
	width := sgPostalWidth
	if country == panel.CountryMalaysia {
		width = myPostalWidth
	}
	out := strconv.Itoa(n)
	for len(out) < width {
		out = "0" + out
	}
	return out
}

// biasedAddress appends the country name when the text does not already
// carry one, so the remote geocoder resolves within the right country.
func biasedAddress(address string, country panel.Country) string {
	lower := strings.ToLower(address)
	if strings.Contains(lower, "singapore") || strings.Contains(lower, "malaysia") {
		return address
	}
	if country == panel.CountryMalaysia {
		return address + ", Malaysia"
	}
	return address + ", Singapore"
}

func regionHint(country panel.Country) string {
	if country == panel.CountryMalaysia {
		return "my"
	}
	return "sg"
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func ptr(v float64) *float64 {
	return &v
}
