package addon

import "fmt"

// maxIDLength bounds add-on identifiers; matches the catalog file format.
const maxIDLength = 64

// validateAddon checks one catalog entry and compiles its match patterns.
//
// Validation rules:
//   - ID is non-empty and at most 64 characters
//   - Name is non-empty
//   - Every discovery method names a known finder kind and a service type
//   - Every match property has a name and a compilable regex
//
// Pattern compilation mutates the entry (the compiled pattern is cached on
// the MatchProperty), which is why validation happens exactly once at load.
func validateAddon(a *Addon) error {
	if a.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAddon)
	}
	if len(a.ID) > maxIDLength {
		return fmt.Errorf("%w: id %q exceeds %d characters", ErrInvalidAddon, a.ID, maxIDLength)
	}
	if a.Name == "" {
		return fmt.Errorf("%w: %q has no name", ErrInvalidAddon, a.ID)
	}

	for mi := range a.DiscoveryMethods {
		m := &a.DiscoveryMethods[mi]
		if !ValidFinderKind(m.Finder) {
			return fmt.Errorf("%w: %q method %d uses %q", ErrUnknownFinder, a.ID, mi, m.Finder)
		}
		if m.ServiceType == "" {
			return fmt.Errorf("%w: %q method %d has no service type", ErrInvalidAddon, a.ID, mi)
		}

		for pi := range m.MatchProperties {
			p := &m.MatchProperties[pi]
			if p.Name == "" {
				return fmt.Errorf("%w: %q method %d property %d has no name", ErrInvalidAddon, a.ID, mi, pi)
			}
			if err := p.compile(); err != nil {
				return fmt.Errorf("%w: %q property %q: %v", ErrInvalidPattern, a.ID, p.Name, err)
			}
		}
	}

	return nil
}
