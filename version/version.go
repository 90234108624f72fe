// Package version tells which build of wavebank is running.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version can be set at build time using something like:
//
//	go build -ldflags "-X github.com/vsariola/wavebank/version.Version=$(git describe --dirty)"
var Version string

// Hash is the short VCS revision the binary was built from, with a -dirty
// suffix for modified trees, or empty if unknown.
var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision, modified := "", false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}()

var VersionOrHash = func() string {
	if Version != "" {
		return Version
	}
	if Hash != "" {
		return Hash
	}
	return "devel"
}()

// String returns a one-line description of the build for -v flags and logs.
func String(program string) string {
	return fmt.Sprintf("%s %s (%s %s/%s)", program, VersionOrHash, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
