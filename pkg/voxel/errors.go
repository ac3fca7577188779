package voxel

import "errors"

// Failures that abort a whole computation. Callers match them with errors.Is;
// the returned errors wrap them with the detail of what was wrong.
var (
	// ErrConfiguration reports an input that cannot be processed as given,
	// such as a mask that is not two-valued or an unusable anisotropy factor.
	ErrConfiguration = errors.New("configuration error")

	// ErrResolutionUnavailable reports a physical-unit distance that cannot be
	// converted to voxels because the needed resolution is missing or invalid.
	ErrResolutionUnavailable = errors.New("resolution unavailable")
)
