// Package variant defines what a derived stream is: its latency tier, its
// canonical key, the preset catalog that maps (resolution, tier) to encoder
// parameters, and the transcoder argument list built from a preset.
package variant
