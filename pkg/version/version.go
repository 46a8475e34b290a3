package version

import (
	"fmt"
	"runtime"
)

// BinaryName is the canonical name of the compiled binary
const BinaryName = "brioche"

var (
	// Version is the version of the binary, set via a linker flag at build time
	Version = "UNKNOWN"

	// BuildDate is the date at which the binary was built, set via a linker
	// flag at build time
	BuildDate = "UNKNOWN"
)

// VersionString returns a formatted string containing the version, the
// platform the binary was built for, and the build date.
func VersionString() string {
	return fmt.Sprintf("%s (%s/%s). Build date: %s", Version, runtime.GOOS, runtime.GOARCH, BuildDate)
}
