package dictionary

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"campaign-launcher/internal/geo"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Load reads every dictionary in dir. JSON files are parsed as YAML.
// projects, accounts, objectives and tiers are required.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{}
	required := []struct {
		name string
		out  any
	}{
		{"projects", &b.Projects},
		{"accounts", &b.Accounts},
		{"objectives", &b.Objectives},
	}
	for _, r := range required {
		if err := loadFile(dir, r.name, r.out, true); err != nil {
			return nil, err
		}
	}
	optional := []struct {
		name string
		out  any
	}{
		{"events", &b.Events},
		{"event_types", &b.EventTypes},
		{"languages", &b.Languages},
		{"locales", &b.Locales},
		{"country_groups", &b.CountryGroups},
	}
	for _, o := range optional {
		if err := loadFile(dir, o.name, o.out, false); err != nil {
			return nil, err
		}
	}

	var tiers yaml.Node
	if err := loadFile(dir, "tiers", &tiers, true); err != nil {
		return nil, err
	}
	entries, err := tierEntries(&tiers)
	if err != nil {
		return nil, fmt.Errorf("tiers: %w", err)
	}
	if b.Tiers, err = geo.NewTable(entries); err != nil {
		return nil, fmt.Errorf("tiers: %w", err)
	}
	return b, nil
}

func loadFile(dir, name string, out any, required bool) error {
	path, err := find(dir, name)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(out); err != nil {
		return fmt.Errorf("decode dictionary %s: %w", path, err)
	}
	return nil
}

func find(dir, name string) (string, error) {
	for _, ext := range extensions {
		p := filepath.Join(dir, name+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("dictionary %s in %s: %w", name, dir, os.ErrNotExist)
}

// tierEntries walks the mapping node so tier order survives decoding.
func tierEntries(n *yaml.Node) ([]geo.TierEntry, error) {
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of tier -> countries, line %d", n.Line)
	}
	entries := make([]geo.TierEntry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var e geo.TierEntry
		e.Key = n.Content[i].Value
		if err := n.Content[i+1].Decode(&e.Countries); err != nil {
			return nil, fmt.Errorf("tier %s: %w", e.Key, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
