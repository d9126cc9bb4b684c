// Package version carries build metadata set with -ldflags "-X".
package version

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String formats the build metadata on one line.
func String() string {
	return Version + " (commit " + Commit + ", built " + BuildDate + ")"
}
