package variant

import "strings"

// Tier is a named quality/latency tradeoff profile.
type Tier string

const (
	TierStandard Tier = "standard"
	TierLow      Tier = "low"
	TierUltra    Tier = "ultra"
	TierExtreme  Tier = "extreme"
)

var tierOrder = []Tier{TierStandard, TierLow, TierUltra, TierExtreme}

// Tiers returns all tiers from highest quality to lowest latency.
func Tiers() []Tier {
	return append([]Tier(nil), tierOrder...)
}

// Rank is the position of the tier in latency order (standard=0).
func (t Tier) Rank() int {
	for i, x := range tierOrder {
		if x == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool { return t.Rank() >= 0 }

func (t Tier) String() string { return string(t) }

// ParseTier maps a request parameter to a Tier. An empty value selects the
// standard tier.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TierStandard, nil
	}
	t := Tier(s)
	if !t.Valid() {
		return "", ErrInvalidPreset("unknown tier " + s)
	}
	return t, nil
}
