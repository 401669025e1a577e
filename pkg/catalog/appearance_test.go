package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/HerbHall/fortimap/pkg/models"
)

func TestDefaultCatalogCoversAllCategories(t *testing.T) {
	a := Default()

	categories := []models.DeviceType{
		models.DeviceTypeFirewall,
		models.DeviceTypeSwitch,
		models.DeviceTypeAccessPoint,
		models.DeviceTypeEndpoint,
		models.DeviceTypeInterface,
	}
	for _, c := range categories {
		e, ok := a.Lookup(c)
		if !ok {
			t.Errorf("Lookup(%q) missing entry", c)
			continue
		}
		if e.Color == "" {
			t.Errorf("Lookup(%q) has empty color", c)
		}
	}
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	data := []byte("entries:\n  - category: firewall\n    color: \"#123456\"\n    scale: 2.0\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	a, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	e, ok := a.Lookup(models.DeviceTypeFirewall)
	if !ok {
		t.Fatal("firewall entry missing")
	}
	if e.Color != "#123456" {
		t.Errorf("color = %q, want %q", e.Color, "#123456")
	}
	if _, ok := a.Lookup(models.DeviceTypeSwitch); ok {
		t.Error("override catalog should not inherit embedded entries")
	}
}

func TestDecorateCopiesMetadata(t *testing.T) {
	shared := map[string]any{"status": "up"}
	doc := &models.VizDocument{
		Models: []models.VizModel{
			{Category: models.DeviceTypeSwitch, Metadata: shared},
			{Category: models.DeviceType("mystery"), Metadata: shared},
		},
	}

	Default().Decorate(doc)

	if doc.Models[0].Metadata["color"] != "#44ff44" {
		t.Errorf("color = %v, want switch color", doc.Models[0].Metadata["color"])
	}
	if doc.Models[0].Metadata["status"] != "up" {
		t.Error("existing metadata should be preserved")
	}
	if _, ok := shared["color"]; ok {
		t.Error("decorate must not mutate the shared source map")
	}
	// Unknown categories are left untouched.
	if _, ok := doc.Models[1].Metadata["color"]; ok {
		t.Error("unknown category should not be decorated")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
