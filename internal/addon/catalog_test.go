package addon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validCatalogYAML = `
addons:
  - id: hue
    name: Philips Hue
    description: Hue bridge integration
    labels:
      de:
        name: Philips Hue Bridge
      fr:
        name: Pont Philips Hue
        description: Ampoules et pont Hue
    discovery_methods:
      - finder: mdns
        service_type: _hue._tcp.local.
  - id: hpprinter
    name: HP Printer
    discovery_methods:
      - finder: mdns
        service_type: _printer._tcp.local.
        match_properties:
          - name: rp
            regex: ".*"
          - name: ty
            regex: "hp (.*)"
  - id: zigbee2mqtt
    name: Zigbee2MQTT
    discovery_methods:
      - finder: mqtt
        service_type: zigbee2mqtt/bridge/state
      - finder: usb
        service_type: usb-serial
        match_properties:
          - name: vendor_id
            regex: "0451"
`

func TestParseCatalog_Valid(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("expected valid catalog, got error: %v", err)
	}
	if catalog.Len() != 3 {
		t.Errorf("expected 3 addons, got %d", catalog.Len())
	}

	entry, err := catalog.Get("hue")
	if err != nil {
		t.Fatalf("expected hue entry: %v", err)
	}
	if entry.Name != "Philips Hue" {
		t.Errorf("expected name 'Philips Hue', got %q", entry.Name)
	}
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "empty catalog",
			yaml:    "addons: []",
			wantErr: ErrEmptyCatalog,
		},
		{
			name: "missing id",
			yaml: `
addons:
  - name: No ID
`,
			wantErr: ErrInvalidAddon,
		},
		{
			name: "missing name",
			yaml: `
addons:
  - id: anon
`,
			wantErr: ErrInvalidAddon,
		},
		{
			name: "duplicate id",
			yaml: `
addons:
  - id: hue
    name: One
  - id: hue
    name: Two
`,
			wantErr: ErrDuplicateID,
		},
		{
			name: "unknown finder kind",
			yaml: `
addons:
  - id: hue
    name: Hue
    discovery_methods:
      - finder: bluetooth
        service_type: whatever
`,
			wantErr: ErrUnknownFinder,
		},
		{
			name: "missing service type",
			yaml: `
addons:
  - id: hue
    name: Hue
    discovery_methods:
      - finder: mdns
`,
			wantErr: ErrInvalidAddon,
		},
		{
			name: "unnamed match property",
			yaml: `
addons:
  - id: hue
    name: Hue
    discovery_methods:
      - finder: mdns
        service_type: _hue._tcp.local.
        match_properties:
          - regex: ".*"
`,
			wantErr: ErrInvalidAddon,
		},
		{
			name: "broken regex",
			yaml: `
addons:
  - id: hue
    name: Hue
    discovery_methods:
      - finder: mdns
        service_type: _hue._tcp.local.
        match_properties:
          - name: ty
            regex: "hp ("
`,
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseCatalog_MalformedYAML(t *testing.T) {
	if _, err := ParseCatalog([]byte("addons: [not: valid")); err == nil {
		t.Fatal("expected parse error for malformed YAML")
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addons.yaml")
	if err := os.WriteFile(path, []byte(validCatalogYAML), 0o600); err != nil {
		t.Fatalf("writing catalog file: %v", err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	if catalog.Len() != 3 {
		t.Errorf("expected 3 addons, got %d", catalog.Len())
	}
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	if _, err := LoadCatalog("/nonexistent/addons.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCatalog_Get_NotFound(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}

	if _, err := catalog.Get("nonexistent"); !errors.Is(err, ErrAddonNotFound) {
		t.Errorf("expected ErrAddonNotFound, got %v", err)
	}
}

func TestCatalog_Addons_ReturnsCopy(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}

	addons := catalog.Addons()
	addons[0].ID = "mutated"

	if fresh := catalog.Addons(); fresh[0].ID != "hue" {
		t.Error("mutating the returned slice affected the catalog")
	}
}

func TestCatalog_ServiceTypesFor(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}

	mdnsTypes := catalog.ServiceTypesFor(FinderMDNS)
	if len(mdnsTypes) != 2 {
		t.Fatalf("expected 2 mdns service types, got %v", mdnsTypes)
	}
	if mdnsTypes[0] != "_hue._tcp.local." || mdnsTypes[1] != "_printer._tcp.local." {
		t.Errorf("unexpected mdns types: %v", mdnsTypes)
	}

	if usbTypes := catalog.ServiceTypesFor(FinderUSB); len(usbTypes) != 1 || usbTypes[0] != "usb-serial" {
		t.Errorf("unexpected usb types: %v", usbTypes)
	}
}

func TestAddon_Localized(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}
	hue, err := catalog.Get("hue")
	if err != nil {
		t.Fatalf("getting hue: %v", err)
	}

	tests := []struct {
		name            string
		locale          string
		wantName        string
		wantDescription string
	}{
		{"empty locale uses defaults", "", "Philips Hue", "Hue bridge integration"},
		{"exact match", "fr", "Pont Philips Hue", "Ampoules et pont Hue"},
		{"language subtag fallback", "de-AT", "Philips Hue Bridge", "Hue bridge integration"},
		{"underscore separator", "de_DE", "Philips Hue Bridge", "Hue bridge integration"},
		{"unknown locale uses defaults", "ja", "Philips Hue", "Hue bridge integration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, description := hue.Localized(tt.locale)
			if name != tt.wantName {
				t.Errorf("name: expected %q, got %q", tt.wantName, name)
			}
			if description != tt.wantDescription {
				t.Errorf("description: expected %q, got %q", tt.wantDescription, description)
			}
		})
	}
}

func TestMatchProperty_Anchored(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}
	printer, err := catalog.Get("hpprinter")
	if err != nil {
		t.Fatalf("getting hpprinter: %v", err)
	}

	ty := &printer.DiscoveryMethods[0].MatchProperties[1]

	if !ty.Matches("hp deskjet 3630") {
		t.Error("expected 'hp deskjet 3630' to match 'hp (.*)'")
	}
	// Patterns must match the whole value, not a substring.
	if ty.Matches("not an hp printer") {
		t.Error("expected substring hit to be rejected by anchoring")
	}
	if ty.Matches("") {
		t.Error("expected empty value not to match")
	}
}

func TestMatchProperty_Uncompiled(t *testing.T) {
	p := MatchProperty{Name: "ty", Regex: ".*"}
	if p.Matches("anything") {
		t.Error("uncompiled property must never match")
	}
}

func TestAddon_MethodsFor(t *testing.T) {
	catalog, err := ParseCatalog([]byte(validCatalogYAML))
	if err != nil {
		t.Fatalf("parsing catalog: %v", err)
	}
	z2m, err := catalog.Get("zigbee2mqtt")
	if err != nil {
		t.Fatalf("getting zigbee2mqtt: %v", err)
	}

	if methods := z2m.MethodsFor(FinderMQTT); len(methods) != 1 {
		t.Errorf("expected 1 mqtt method, got %d", len(methods))
	}
	if methods := z2m.MethodsFor(FinderUSB); len(methods) != 1 {
		t.Errorf("expected 1 usb method, got %d", len(methods))
	}
	if methods := z2m.MethodsFor(FinderMDNS); methods != nil {
		t.Errorf("expected no mdns methods, got %v", methods)
	}
}

func TestValidFinderKind(t *testing.T) {
	for _, kind := range []FinderKind{FinderMDNS, FinderMQTT, FinderUSB} {
		if !ValidFinderKind(kind) {
			t.Errorf("expected %q to be valid", kind)
		}
	}
	if ValidFinderKind("bluetooth") {
		t.Error("expected unknown kind to be invalid")
	}
}
