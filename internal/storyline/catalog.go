// Package storyline holds the static catalog of historical settings a
// session can be bound to. The catalog ships embedded in the binary and is
// read-only reference data.
package storyline

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed storylines.yaml
var catalogYAML []byte

// Character is a non-player character belonging to a storyline's cast.
type Character struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Role       string   `yaml:"role" json:"role"`
	Background string   `yaml:"background" json:"background"`
	Goals      string   `yaml:"goals,omitempty" json:"goals,omitempty"`
	Traits     []string `yaml:"traits,omitempty" json:"traits,omitempty"`
}

// Storyline describes one historical setting: its era, framing, starter
// hook, table safety tools, and cast.
type Storyline struct {
	ID          string      `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Era         string      `yaml:"era" json:"era"`
	Location    string      `yaml:"location,omitempty" json:"location,omitempty"`
	Description string      `yaml:"description" json:"description"`
	StarterHook string      `yaml:"starter_hook" json:"starter_hook"`
	SafetyTools []string    `yaml:"safety_tools,omitempty" json:"safety_tools,omitempty"`
	Characters  []Character `yaml:"characters" json:"characters"`
}

// Catalog is an immutable set of storylines keyed by id.
type Catalog struct {
	storylines []Storyline
	byID       map[string]*Storyline
}

// NewCatalog parses the embedded catalog. It fails only if the embedded data
// is malformed, which is a build defect rather than a runtime condition.
func NewCatalog() (*Catalog, error) {
	var doc struct {
		Storylines []Storyline `yaml:"storylines"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse storyline catalog: %w", err)
	}

	c := &Catalog{
		storylines: doc.Storylines,
		byID:       make(map[string]*Storyline, len(doc.Storylines)),
	}
	for i := range c.storylines {
		s := &c.storylines[i]
		if s.ID == "" {
			return nil, fmt.Errorf("storyline %d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate storyline id %q", s.ID)
		}
		c.byID[s.ID] = s
	}
	return c, nil
}

// Find returns the storyline with the given id, or nil if unknown. Session
// storyline ids are not validated on write, so lookups tolerate misses.
func (c *Catalog) Find(id string) *Storyline {
	if id == "" {
		return nil
	}
	return c.byID[id]
}

// All returns the catalog in declaration order.
func (c *Catalog) All() []Storyline {
	return c.storylines
}
