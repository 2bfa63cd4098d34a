package geo

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownTier  = errors.New("unknown tier")
	ErrNoCountries  = errors.New("no targetable countries")
	ErrBadCountry   = errors.New("invalid country code")
	ErrDuplicateKey = errors.New("duplicate tier key")
)

// Worldwide is both the selector spelling and the naming label.
const Worldwide = "WW"

// Restricted is stripped from every country set the resolver hands out.
// UK, IC and JB are not ISO codes but appear in the source tier data.
var Restricted = []string{"CU", "IR", "RU", "SD", "UK", "IC", "JB"}

func IsRestricted(code string) bool { return slices.Contains(Restricted, code) }

// Table is the tier -> countries dictionary. Key order is the file order and
// drives first-match lookups and all-tier batches.
type Table struct {
	keys  []string
	tiers map[string][]string
}

// TierEntry is one tier as read from the dictionary file.
type TierEntry struct {
	Key       string
	Countries []string
}

func NewTable(entries []TierEntry) (*Table, error) {
	t := &Table{tiers: make(map[string][]string, len(entries))}
	for _, e := range entries {
		if _, ok := t.tiers[e.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, e.Key)
		}
		codes := make([]string, 0, len(e.Countries))
		for _, c := range e.Countries {
			c = normalize(c)
			if len(c) != 2 {
				return nil, fmt.Errorf("%w: %q in tier %s", ErrBadCountry, c, e.Key)
			}
			if !slices.Contains(codes, c) {
				codes = append(codes, c)
			}
		}
		t.keys = append(t.keys, e.Key)
		t.tiers[e.Key] = codes
	}
	return t, nil
}

// Keys returns tier keys in file order.
func (t *Table) Keys() []string { return slices.Clone(t.keys) }

func (t *Table) Has(key string) bool {
	_, ok := t.tiers[key]
	return ok
}

func (t *Table) countries(key string) []string { return t.tiers[key] }

func normalize(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }
