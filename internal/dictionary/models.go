package dictionary

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"campaign-launcher/internal/geo"
)

var ErrUnknownKey = errors.New("unknown dictionary key")

// LookupError is returned for any missing dictionary key.
type LookupError struct {
	Table string
	Key   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %q not found in %s", ErrUnknownKey, e.Key, e.Table)
}

func (e *LookupError) Unwrap() error { return ErrUnknownKey }

// Regional holds a default value plus region-specific overrides.
type Regional struct {
	Default   string `yaml:"default"`
	Australia string `yaml:"australia"`
	Taiwan    string `yaml:"taiwan"`
	Singapore string `yaml:"singapore"`
}

// For picks the override for the first of AU, TW, SG present in countries.
func (r Regional) For(countries []string) string {
	has := func(c string) bool { return slices.Contains(countries, c) }
	switch {
	case has("AU") && r.Australia != "":
		return r.Australia
	case has("TW") && r.Taiwan != "":
		return r.Taiwan
	case has("SG") && r.Singapore != "":
		return r.Singapore
	}
	return r.Default
}

type Project struct {
	Alias             string   `yaml:"alias"`
	CampaignObjective string   `yaml:"campaign_objective"`
	ApplicationID     string   `yaml:"application_id"`
	ObjectStoreURL    string   `yaml:"object_store_url"`
	LinkObjectID      string   `yaml:"link_object_id"`
	AccountNames      []string `yaml:"account_names"`
	Beneficiary       Regional `yaml:"beneficiary"`
	Payer             Regional `yaml:"payer"`
}

// AppID is the application id without its "x:" prefix.
func (p Project) AppID() string { return strings.TrimPrefix(p.ApplicationID, "x:") }

// Bundle is the immutable set of lookup tables for one run.
type Bundle struct {
	Projects      map[string]Project
	Accounts      map[string]string
	Objectives    map[string]string
	Events        map[string]string
	EventTypes    map[string]string
	Languages     map[string]string
	Locales       map[string][]int
	CountryGroups map[string][]string
	Tiers         *geo.Table
}

func (b *Bundle) Resolver() *geo.Resolver { return geo.NewResolver(b.Tiers, b.CountryGroups) }

func (b *Bundle) Project(name string) (Project, error) {
	p, ok := b.Projects[name]
	if !ok {
		return Project{}, &LookupError{Table: "projects", Key: name}
	}
	return p, nil
}

// Account returns the ad-account id for name, or for the project's first
// account when name is empty.
func (b *Bundle) Account(p Project, name string) (string, string, error) {
	if name == "" {
		if len(p.AccountNames) == 0 {
			return "", "", &LookupError{Table: "projects.account_names", Key: p.Alias}
		}
		name = p.AccountNames[0]
	}
	id, ok := b.Accounts[name]
	if !ok {
		return "", "", &LookupError{Table: "accounts", Key: name}
	}
	return name, strings.TrimPrefix(id, "act_"), nil
}

func (b *Bundle) Objective(key string) (string, error) {
	return lookup("objectives", b.Objectives, key)
}

// EventCode maps an operator event name ("4 sessions") to its code.
func (b *Bundle) EventCode(name string) (string, error) { return lookup("events", b.Events, name) }

// EventType maps an event code to the platform custom_event_type.
func (b *Bundle) EventType(code string) (string, error) {
	return lookup("event_types", b.EventTypes, code)
}

// Language maps an operator language name to its naming code.
func (b *Bundle) Language(name string) (string, error) {
	return lookup("languages", b.Languages, name)
}

// LocaleIDs returns the locale ids for a language code; none means all.
func (b *Bundle) LocaleIDs(lang string) []int { return b.Locales[lang] }

func lookup(table string, m map[string]string, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", &LookupError{Table: table, Key: key}
	}
	return v, nil
}
