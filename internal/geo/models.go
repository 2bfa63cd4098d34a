package geo

import (
	"fmt"
	"slices"
	"strings"
)

// Selector is the operator's audience choice: ByTier, ByCountries or Everywhere.
type Selector interface{ selector() }

type ByTier struct{ Tier string }

type ByCountries struct{ Countries []string }

type Everywhere struct{}

func (ByTier) selector()      {}
func (ByCountries) selector() {}
func (Everywhere) selector()  {}

// ParseSelector builds a selector from CLI-style input. "WW" is worldwide.
// Explicit countries win over a tier.
func ParseSelector(tier string, countries []string) (Selector, error) {
	switch {
	case len(countries) > 0:
		return ByCountries{Countries: countries}, nil
	case strings.EqualFold(tier, Worldwide):
		return Everywhere{}, nil
	case tier != "":
		return ByTier{Tier: tier}, nil
	}
	return nil, fmt.Errorf("%w: neither tier nor countries given", ErrNoCountries)
}

// Mode names the geo-targeting representation of a request.
type Mode int

const (
	ModeCountryList Mode = iota + 1
	ModeTierGroup
	ModeWorldwide
)

func (m Mode) String() string {
	switch m {
	case ModeCountryList:
		return "BY_COUNTRY_LIST"
	case ModeTierGroup:
		return "BY_TIER_GROUP"
	case ModeWorldwide:
		return "WORLDWIDE"
	}
	return "UNKNOWN"
}

// Geo is exactly one of GeoCountries, GeoGroups or GeoWorldwide.
type Geo interface{ Mode() Mode }

type GeoCountries struct{ Countries []string }

type GeoGroups struct{ Keys []string }

type GeoWorldwide struct{}

func (GeoCountries) Mode() Mode { return ModeCountryList }
func (GeoGroups) Mode() Mode    { return ModeTierGroup }
func (GeoWorldwide) Mode() Mode { return ModeWorldwide }

// Resolved is the output of resolution. Countries is always de-duplicated and
// free of Restricted codes; NamingCountries is only set for explicit lists.
type Resolved struct {
	Label           string
	RawKey          string
	Countries       []string
	NamingCountries []string
	Geo             Geo
	Excluded        []string
}

func (r Resolved) Mode() Mode {
	if r.Geo == nil {
		return 0
	}
	return r.Geo.Mode()
}

func (r Resolved) Contains(code string) bool { return slices.Contains(r.Countries, code) }

var regulatedCategories = []string{"TAIWAN_UNIVERSAL", "SINGAPORE_UNIVERSAL"}

// RegulatedCategories lists the regional regulated categories the ad set
// must declare: worldwide or any Taiwan/Singapore targeting.
func (r Resolved) RegulatedCategories() []string {
	if r.Label == Worldwide || r.Mode() == ModeWorldwide || r.Contains("TW") || r.Contains("SG") {
		return slices.Clone(regulatedCategories)
	}
	return nil
}
