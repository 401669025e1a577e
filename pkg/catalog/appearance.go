// Package catalog maps device categories to the colors and mesh scales the
// 3D viewer renders them with. A default catalog is embedded; deployments
// can override it with their own YAML file.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/fortimap/pkg/models"
)

//go:embed appearance.yaml
var appearanceRawData []byte

// Entry describes how one device category is rendered.
type Entry struct {
	Category models.DeviceType `yaml:"category" json:"category"`
	Color    string            `yaml:"color" json:"color"`
	Scale    float64           `yaml:"scale" json:"scale"`
}

// appearanceFile is the top-level structure of the YAML.
type appearanceFile struct {
	Entries []Entry `yaml:"entries"`
}

// Appearance provides lazy-loaded access to the rendering catalog.
type Appearance struct {
	once    sync.Once
	raw     []byte
	entries map[models.DeviceType]Entry
	err     error
}

// Default returns an Appearance backed by the embedded catalog.
func Default() *Appearance {
	return &Appearance{raw: appearanceRawData}
}

// LoadFile returns an Appearance backed by a user-supplied YAML file.
func LoadFile(path string) (*Appearance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	return &Appearance{raw: data}, nil
}

// Lookup returns the entry for a category, if present.
func (a *Appearance) Lookup(category models.DeviceType) (Entry, bool) {
	a.once.Do(a.load)
	if a.err != nil {
		return Entry{}, false
	}
	e, ok := a.entries[category]
	return e, ok
}

// Entries returns all catalog entries.
func (a *Appearance) Entries() ([]Entry, error) {
	a.once.Do(a.load)
	if a.err != nil {
		return nil, a.err
	}
	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e)
	}
	return out, nil
}

// Decorate stamps color and scale into each model's metadata. Model metadata
// maps may be shared with the source topology, so decoration always writes
// to a copy.
func (a *Appearance) Decorate(doc *models.VizDocument) {
	for i := range doc.Models {
		e, ok := a.Lookup(doc.Models[i].Category)
		if !ok {
			continue
		}
		meta := make(map[string]any, len(doc.Models[i].Metadata)+2)
		for k, v := range doc.Models[i].Metadata {
			meta[k] = v
		}
		meta["color"] = e.Color
		meta["scale"] = e.Scale
		doc.Models[i].Metadata = meta
	}
}

// load parses the YAML catalog data.
func (a *Appearance) load() {
	var f appearanceFile
	if err := yaml.Unmarshal(a.raw, &f); err != nil {
		a.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	a.entries = make(map[models.DeviceType]Entry, len(f.Entries))
	for _, e := range f.Entries {
		a.entries[e.Category] = e
	}
}
