// Package version holds the build version of the server.
package version

// Version is the current released version.
var Version = "0.3.1"

// DevVersion is the current development version.
var DevVersion = "0.3.2"

// GetCurrentVersion returns the version for the given run mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}
