package release

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var ErrInvalidVersion = errors.New("release: invalid version")

// Latest is the version keyword that triggers a tag lookup.
const Latest = "latest"

// ValidateVersion accepts strict MAJOR.MINOR.PATCH with optional
// pre-release and build metadata. A leading "v" is rejected.
func ValidateVersion(raw string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, raw, err)
	}
	return v, nil
}

// ParseLooseVersion accepts vendor versions like "3006.1" or "1.22".
func ParseLooseVersion(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, raw, err)
	}
	return v, nil
}

// IsLatest reports whether raw asks for the newest published release.
func IsLatest(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), Latest)
}
