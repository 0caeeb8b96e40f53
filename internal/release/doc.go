// Package release fetches versioned vendor release archives for the
// current host and installs what they contain.
//
// Ownership boundary:
// - platform and architecture detection
//
// - semantic version validation and latest tag lookup
//
// - download to temp files and archive extraction
package release
