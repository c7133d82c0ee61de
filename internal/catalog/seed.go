package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile mirrors the YAML layout of CATALOG_FILE. Prices are written as decimal
// strings so the file stays readable by the lab staff maintaining it.
type seedFile struct {
	Entries []seedEntry `yaml:"entries"`
}

type seedEntry struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Category  string      `yaml:"category"`
	BasePrice string      `yaml:"base_price"`
	Groups    []seedGroup `yaml:"groups"`
}

type seedGroup struct {
	ID            string        `yaml:"id"`
	Name          string        `yaml:"name"`
	SelectionType SelectionType `yaml:"selection_type"`
	Options       []seedOption  `yaml:"options"`
}

type seedOption struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Price    string   `yaml:"price"`
	Disables []string `yaml:"disables"`
}

func LoadFile(path string) ([]*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	return ParseSeed(data)
}

// ParseSeed decodes a YAML catalog document.
func ParseSeed(data []byte) ([]*Entry, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog yaml: %w", err)
	}

	entries := make([]*Entry, 0, len(f.Entries))
	seen := make(map[string]struct{}, len(f.Entries))

	for _, se := range f.Entries {
		if se.ID == "" {
			return nil, fmt.Errorf("catalog entry %q: missing id", se.Name)
		}

		if _, dup := seen[se.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate id", se.ID)
		}

		seen[se.ID] = struct{}{}

		e, err := se.toEntry()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %q: %w", se.ID, err)
		}

		entries = append(entries, e)
	}

	return entries, nil
}

func (se seedEntry) toEntry() (*Entry, error) {
	base, err := ParseAmount(se.BasePrice)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		ID:        se.ID,
		Name:      se.Name,
		Category:  se.Category,
		BasePrice: base,
		Groups:    make([]Group, 0, len(se.Groups)),
	}

	for _, sg := range se.Groups {
		switch sg.SelectionType {
		case SelectionSingle, SelectionMultiple, SelectionText:
		case "":
			sg.SelectionType = SelectionSingle
		default:
			return nil, fmt.Errorf("group %q: unknown selection type %q", sg.ID, sg.SelectionType)
		}

		g := Group{
			ID:            sg.ID,
			Name:          sg.Name,
			SelectionType: sg.SelectionType,
			Options:       make([]Option, 0, len(sg.Options)),
		}

		for _, so := range sg.Options {
			mod, err := ParseAmount(so.Price)
			if err != nil {
				return nil, fmt.Errorf("option %q: %w", so.ID, err)
			}

			g.Options = append(g.Options, Option{
				ID:            so.ID,
				Name:          so.Name,
				PriceModifier: mod,
				Disables:      so.Disables,
			})
		}

		e.Groups = append(e.Groups, g)
	}

	return e, nil
}
