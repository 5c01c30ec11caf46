package addon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog is the loaded, validated set of add-on candidates.
//
// The catalog is built once at startup from the YAML catalog file and is
// read-only afterwards, so it may be shared freely between goroutines.
type Catalog struct {
	addons []Addon
	byID   map[string]int
}

// catalogFile mirrors the YAML catalog document structure.
type catalogFile struct {
	Addons []Addon `yaml:"addons"`
}

// LoadCatalog reads and validates the add-on catalog from a YAML file.
//
// Every entry is validated (non-empty unique ID, known finder kinds) and
// every match property pattern is compiled. A single invalid entry fails
// the whole load; a catalog with a broken pattern must not start silently
// degraded.
//
// Parameters:
//   - path: Path to the YAML catalog file (e.g. configs/addons.yaml)
//
// Returns:
//   - *Catalog: Validated catalog ready for use
//   - error: If the file cannot be read, parsed, or validated
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from raw YAML bytes.
// Split out from LoadCatalog for testability.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if len(file.Addons) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		addons: file.Addons,
		byID:   make(map[string]int, len(file.Addons)),
	}

	for i := range c.addons {
		a := &c.addons[i]
		if err := validateAddon(a); err != nil {
			return nil, err
		}
		if _, exists := c.byID[a.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, a.ID)
		}
		c.byID[a.ID] = i
	}

	return c, nil
}

// Addons returns all catalog entries in file order.
// The returned slice is a copy; the entries themselves are immutable.
func (c *Catalog) Addons() []Addon {
	addons := make([]Addon, len(c.addons))
	copy(addons, c.addons)
	return addons
}

// Get retrieves an add-on by ID.
// Returns ErrAddonNotFound if the ID is not in the catalog.
func (c *Catalog) Get(id string) (*Addon, error) {
	idx, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAddonNotFound, id)
	}
	return &c.addons[idx], nil
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.addons)
}

// ServiceTypesFor returns the distinct service type tags declared for the
// given finder kind across the whole catalog, in first-seen order. Finders
// use this to decide what to browse or subscribe to.
func (c *Catalog) ServiceTypesFor(kind FinderKind) []string {
	seen := make(map[string]struct{})
	var types []string
	for i := range c.addons {
		for _, m := range c.addons[i].MethodsFor(kind) {
			if _, ok := seen[m.ServiceType]; ok {
				continue
			}
			seen[m.ServiceType] = struct{}{}
			types = append(types, m.ServiceType)
		}
	}
	return types
}
