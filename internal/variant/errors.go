package variant

import "errors"

// invalidPresetError signals a request that can never resolve to a preset:
// unknown resolution, unknown tier or a malformed source id.
type invalidPresetError struct{ msg string }

func (e invalidPresetError) Error() string { return "invalid preset: " + e.msg }

// ErrInvalidPreset constructs an invalid preset error.
func ErrInvalidPreset(msg string) error { return invalidPresetError{msg: msg} }

// IsInvalidPreset reports whether err indicates an invalid preset request.
func IsInvalidPreset(err error) bool {
	var e invalidPresetError
	return errors.As(err, &e)
}

// presetNotFoundError signals a known resolution that is not defined for the
// requested tier.
type presetNotFoundError struct {
	resolution string
	tier       Tier
}

func (e presetNotFoundError) Error() string {
	return "preset not found: " + e.resolution + " for tier " + string(e.tier)
}

// ErrPresetNotFound constructs a preset-not-found error.
func ErrPresetNotFound(resolution string, tier Tier) error {
	return presetNotFoundError{resolution: resolution, tier: tier}
}

// IsPresetNotFound reports whether err indicates a missing (resolution, tier) row.
func IsPresetNotFound(err error) bool {
	var e presetNotFoundError
	return errors.As(err, &e)
}
