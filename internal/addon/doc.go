// Package addon defines the add-on candidate catalog for Gray Logic Add-on
// Scout.
//
// An Addon describes one installable integration (a protocol bridge such as
// Hue, Zigbee2MQTT, or a KNX USB interface) together with the discovery
// methods that hint at its presence on the local network or bus. The catalog
// is loaded from YAML at startup, validated once (including regex
// compilation for match properties), and is immutable afterwards.
//
// # Key Types
//
//   - Addon: an installable add-on candidate with declared discovery methods
//   - DiscoveryMethod: a finder kind + service type + match property rules
//   - MatchProperty: a (property name, anchored regex) pair
//   - Catalog: the validated, read-only candidate set
//
// # Usage
//
//	catalog, err := addon.LoadCatalog("configs/addons.yaml")
//	if err != nil {
//	    return err
//	}
//
//	// Hand the candidate set to the discovery finders
//	finder.SetAddonCandidates(catalog.Addons())
//
//	// Localize for display
//	a, _ := catalog.Get("hue")
//	name, desc := a.Localized("de-DE")
//
// # Thread Safety
//
// Catalog and Addon values are immutable after LoadCatalog returns and are
// safe for concurrent use without synchronisation.
package addon
