// Package version exposes the build version stamped in at link time.
package version

// version is set via -ldflags at build time; see the Build mage target.
var version = "dev"

// Value returns the stamped version string.
func Value() string {
	return version
}
