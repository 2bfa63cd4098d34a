package geo

import (
	"fmt"
	"slices"
	"strings"
)

var tierAliases = map[string]string{
	"Tier-1": "Tier1",
	"tier-1": "Tier1",
	"Latam":  "LatAm",
	"latam":  "LatAm",
}

var tierLabels = map[string]string{
	"Tier1": "Tier-1",
	"LatAm": "Latam",
}

// CanonicalTier maps a display alias to its table key.
func CanonicalTier(s string) string {
	if k, ok := tierAliases[s]; ok {
		return k
	}
	return s
}

// TierLabel maps a table key to the spelling used in campaign names.
func TierLabel(key string) string {
	if l, ok := tierLabels[key]; ok {
		return l
	}
	return key
}

// mixedTierListLimit is the largest cross-tier country list still labelled
// by its majority tier; longer lists are labelled WW.
const mixedTierListLimit = 5

// Resolver answers tier/country questions over one immutable Table.
type Resolver struct {
	table  *Table
	groups map[string][]string
}

// NewResolver takes the tier table and the optional tier -> platform
// country-group keys mapping.
func NewResolver(t *Table, groups map[string][]string) *Resolver {
	return &Resolver{table: t, groups: groups}
}

// CountriesForTier returns the raw countries of an exact key, or nothing.
func (r *Resolver) CountriesForTier(key string) []string {
	return slices.Clone(r.table.countries(key))
}

// TierForCountry returns the first tier, in table order, containing code.
func (r *Resolver) TierForCountry(code string) (string, bool) {
	code = normalize(code)
	for _, k := range r.table.keys {
		if slices.Contains(r.table.tiers[k], code) {
			return k, true
		}
	}
	return "", false
}

// TierForCountries returns the tier only when every code maps to it.
func (r *Resolver) TierForCountries(codes []string) (string, bool) {
	if len(codes) == 0 {
		return "", false
	}
	var tier string
	for i, c := range codes {
		t, ok := r.TierForCountry(c)
		if !ok || (i > 0 && t != tier) {
			return "", false
		}
		tier = t
	}
	return tier, true
}

// WorldwideCountries is the sorted union of all tiers minus Restricted.
func (r *Resolver) WorldwideCountries() []string {
	var all []string
	for _, k := range r.table.keys {
		all = append(all, r.table.tiers[k]...)
	}
	slices.Sort(all)
	all = slices.Compact(all)
	return withoutRestricted(all)
}

// Tiers returns the table keys in file order.
func (r *Resolver) Tiers() []string { return r.table.Keys() }

// Resolve turns a selector into the targeting every later stage agrees on.
func (r *Resolver) Resolve(sel Selector) (Resolved, error) {
	switch s := sel.(type) {
	case Everywhere:
		return r.resolveWorldwide()
	case ByTier:
		return r.resolveTier(s.Tier)
	case ByCountries:
		return r.resolveCountries(s.Countries)
	}
	return Resolved{}, fmt.Errorf("unsupported selector %T", sel)
}

func (r *Resolver) resolveWorldwide() (Resolved, error) {
	countries := r.WorldwideCountries()
	if len(countries) == 0 {
		return Resolved{}, fmt.Errorf("%w: worldwide", ErrNoCountries)
	}
	return Resolved{
		Label:     Worldwide,
		RawKey:    Worldwide,
		Countries: countries,
		Geo:       GeoWorldwide{},
		Excluded:  slices.Clone(Restricted),
	}, nil
}

func (r *Resolver) resolveTier(tier string) (Resolved, error) {
	key := CanonicalTier(tier)
	if strings.EqualFold(key, Worldwide) {
		return r.resolveWorldwide()
	}
	if !r.table.Has(key) {
		return Resolved{}, fmt.Errorf("%w: %s", ErrUnknownTier, tier)
	}
	countries := withoutRestricted(r.CountriesForTier(key))
	if len(countries) == 0 {
		return Resolved{}, fmt.Errorf("%w: tier %s", ErrNoCountries, key)
	}
	res := Resolved{
		Label:     TierLabel(key),
		RawKey:    key,
		Countries: countries,
	}
	if groups := r.groups[key]; len(groups) > 0 {
		res.Geo = GeoGroups{Keys: slices.Clone(groups)}
		res.Excluded = slices.Clone(Restricted)
	} else {
		res.Geo = GeoCountries{Countries: slices.Clone(countries)}
	}
	return res, nil
}

func (r *Resolver) resolveCountries(codes []string) (Resolved, error) {
	var countries []string
	for _, c := range codes {
		c = normalize(c)
		if c == "" || IsRestricted(c) || slices.Contains(countries, c) {
			continue
		}
		if len(c) != 2 {
			return Resolved{}, fmt.Errorf("%w: %q", ErrBadCountry, c)
		}
		countries = append(countries, c)
	}
	if len(countries) == 0 {
		return Resolved{}, fmt.Errorf("%w: %s", ErrNoCountries, strings.Join(codes, ","))
	}

	res := Resolved{
		Countries:       countries,
		NamingCountries: slices.Clone(countries),
		Geo:             GeoCountries{Countries: slices.Clone(countries)},
	}
	key := r.labelFor(countries)
	if key != "" {
		res.RawKey = key
		res.Label = TierLabel(key)
	}
	return res, nil
}

// labelFor picks the naming tier for an explicit country list.
func (r *Resolver) labelFor(countries []string) string {
	var order []string
	counts := map[string]int{}
	for _, c := range countries {
		t, ok := r.TierForCountry(c)
		if !ok {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	switch {
	case len(order) == 0:
		return ""
	case len(order) == 1:
		return order[0]
	case len(countries) > mixedTierListLimit:
		return Worldwide
	}
	best := order[0]
	for _, t := range order[1:] {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}

func withoutRestricted(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !IsRestricted(c) {
			out = append(out, c)
		}
	}
	return out
}
