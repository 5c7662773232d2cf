package variant

import (
	"regexp"
	"strings"
)

// Key is the canonical identity of a variant. The string form is also the
// stream id the transcoder publishes to.
type Key struct {
	SourceID   string
	Resolution string
	Tier       Tier
}

const keySep = "_"

var sourceIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidSourceID reports whether id is usable as a source stream id.
func ValidSourceID(id string) bool { return sourceIDPattern.MatchString(id) }

// String renders <source>_<resolution>_<tier>. Resolutions and tiers never
// contain the separator, so the rendering is injective.
func (k Key) String() string {
	return k.SourceID + keySep + k.Resolution + keySep + string(k.Tier)
}

// DeriveKey builds the key for (sourceID, resolution, tier) against the
// default catalog.
func DeriveKey(sourceID, resolution string, tier Tier) (Key, error) {
	return DefaultCatalog().DeriveKey(sourceID, resolution, tier)
}

// DeriveKey builds the key for (sourceID, resolution, tier). The resolution
// must be known to the catalog for at least one tier; whether the exact
// (resolution, tier) row exists is Lookup's concern.
func (c *Catalog) DeriveKey(sourceID, resolution string, tier Tier) (Key, error) {
	if !ValidSourceID(sourceID) {
		return Key{}, ErrInvalidPreset("invalid source id " + quote(sourceID))
	}
	if !tier.Valid() {
		return Key{}, ErrInvalidPreset("unknown tier " + quote(string(tier)))
	}
	if !c.HasResolution(resolution) {
		return Key{}, ErrInvalidPreset("unknown resolution " + quote(resolution))
	}
	return Key{SourceID: sourceID, Resolution: resolution, Tier: tier}, nil
}

// ParseKey splits a rendered key back into its parts.
func ParseKey(s string) (Key, bool) {
	i := strings.LastIndex(s, keySep)
	if i <= 0 {
		return Key{}, false
	}
	tier := Tier(s[i+1:])
	if !tier.Valid() {
		return Key{}, false
	}
	rest := s[:i]
	j := strings.LastIndex(rest, keySep)
	if j <= 0 || j == len(rest)-1 {
		return Key{}, false
	}
	return Key{SourceID: rest[:j], Resolution: rest[j+1:], Tier: tier}, true
}

func quote(s string) string { return `"` + s + `"` }
