package variant

import (
	"sort"
	"sync"
)

// LowDelay is the set of latency-reducing flags a preset enables.
type LowDelay struct {
	ZeroLatency  bool `json:"zeroLatency"`
	NoBuffer     bool `json:"noBuffer"`
	LowDelayFlag bool `json:"lowDelay"`
	FastProbe    bool `json:"fastProbe"`
}

// PresetSpec holds the encoder parameters for one (resolution, tier) pair.
// Values are copied out of the catalog and never mutated in place.
type PresetSpec struct {
	Width            int      `json:"width"`
	Height           int      `json:"height"`
	BitrateKbps      int      `json:"bitrateKbps"`
	FPS              int      `json:"fps"`
	SpeedPreset      string   `json:"speedPreset"`
	CRF              int      `json:"crf"`
	BufSizeKbit      int      `json:"bufSizeKbit"`
	GOP              int      `json:"gop"`
	DropThresholdMs  int      `json:"dropThresholdMs"`
	AudioBitrateKbps int      `json:"audioBitrateKbps"`
	LowDelay         LowDelay `json:"lowDelay"`
}

type rowKey struct {
	resolution string
	tier       Tier
}

// Catalog is a static (resolution, tier) -> PresetSpec table.
type Catalog struct {
	rows        map[rowKey]PresetSpec
	resolutions map[string]struct{}
}

// NewCatalog builds a catalog from per-tier tables.
func NewCatalog(tables map[Tier]map[string]PresetSpec) *Catalog {
	c := &Catalog{rows: make(map[rowKey]PresetSpec), resolutions: make(map[string]struct{})}
	for tier, table := range tables {
		for res, spec := range table {
			c.rows[rowKey{resolution: res, tier: tier}] = spec
			c.resolutions[res] = struct{}{}
		}
	}
	return c
}

// Lookup returns the preset for (resolution, tier). A resolution defined for
// other tiers but not this one fails with PresetNotFound; there is no fallback
// to another tier's row.
func (c *Catalog) Lookup(resolution string, tier Tier) (PresetSpec, error) {
	if !tier.Valid() {
		return PresetSpec{}, ErrInvalidPreset("unknown tier " + quote(string(tier)))
	}
	if !c.HasResolution(resolution) {
		return PresetSpec{}, ErrInvalidPreset("unknown resolution " + quote(resolution))
	}
	spec, ok := c.rows[rowKey{resolution: resolution, tier: tier}]
	if !ok {
		return PresetSpec{}, ErrPresetNotFound(resolution, tier)
	}
	return spec, nil
}

// HasResolution reports whether any tier defines the resolution.
func (c *Catalog) HasResolution(resolution string) bool {
	_, ok := c.resolutions[resolution]
	return ok
}

// Resolutions lists the resolutions defined for tier, smallest frame first.
func (c *Catalog) Resolutions(tier Tier) []string {
	type entry struct {
		res    string
		pixels int
	}
	var list []entry
	for k, spec := range c.rows {
		if k.tier == tier {
			list = append(list, entry{res: k.resolution, pixels: spec.Width * spec.Height})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].pixels != list[j].pixels {
			return list[i].pixels < list[j].pixels
		}
		return list[i].res < list[j].res
	})
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.res)
	}
	return out
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the built-in preset table.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() { defaultCatalog = NewCatalog(builtinTables()) })
	return defaultCatalog
}

func builtinTables() map[Tier]map[string]PresetSpec {
	standard := func(w, h, kbps int) PresetSpec {
		return PresetSpec{
			Width: w, Height: h, BitrateKbps: kbps, FPS: 30,
			SpeedPreset: "medium", CRF: 20, BufSizeKbit: 2000, GOP: 60,
			AudioBitrateKbps: 128,
		}
	}
	low := func(w, h, kbps, drop int) PresetSpec {
		return PresetSpec{
			Width: w, Height: h, BitrateKbps: kbps, FPS: 30,
			SpeedPreset: "ultrafast", CRF: 28, BufSizeKbit: 1000, GOP: 30,
			DropThresholdMs: drop, AudioBitrateKbps: 64,
			LowDelay: LowDelay{ZeroLatency: true},
		}
	}
	ultra := func(w, h, kbps, drop int) PresetSpec {
		return PresetSpec{
			Width: w, Height: h, BitrateKbps: kbps, FPS: 20,
			SpeedPreset: "ultrafast", CRF: 32, BufSizeKbit: 300, GOP: 12,
			DropThresholdMs: drop,
			LowDelay:        LowDelay{ZeroLatency: true, NoBuffer: true, LowDelayFlag: true},
		}
	}
	extreme := func(w, h, kbps, drop int) PresetSpec {
		return PresetSpec{
			Width: w, Height: h, BitrateKbps: kbps, FPS: 10,
			SpeedPreset: "ultrafast", CRF: 40, BufSizeKbit: 100, GOP: 8,
			DropThresholdMs: drop,
			LowDelay:        LowDelay{ZeroLatency: true, NoBuffer: true, LowDelayFlag: true, FastProbe: true},
		}
	}
	return map[Tier]map[string]PresetSpec{
		TierStandard: {
			"240p": standard(240, 134, 200),
			"360p": standard(360, 202, 300),
			"480p": standard(480, 270, 500),
			"720p": standard(720, 404, 800),
		},
		TierLow: {
			"240p": low(240, 134, 200, 25),
			"360p": low(360, 202, 300, 25),
			"480p": low(480, 270, 500, 25),
			"720p": low(720, 404, 800, 50),
		},
		TierUltra: {
			"480p": ultra(480, 270, 300, 50),
			"720p": ultra(640, 360, 400, 100),
		},
		TierExtreme: {
			"480p": extreme(320, 180, 150, 100),
			"720p": extreme(480, 270, 200, 200),
		},
	}
}
