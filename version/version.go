package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// validCharacters is a list of characters valid in the build metadata
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// revisionLength is how many characters of a VCS revision are used as build metadata
const revisionLength = 12

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/orvnet/orvd/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version as a properly formed string.
// Build metadata comes from appBuild or, when that is unset, from the VCS
// revision the binary was built from.
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appBuild, vcsRevision())
	})
	return version
}

func formatVersion(build string, revision string) string {
	v := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if build == "" {
		build = revision
	}
	build = checkAppBuild(build)
	if build != "" {
		v = fmt.Sprintf("%s-%s", v, build)
	}
	return v
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	revision := ""
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > revisionLength {
		revision = revision[:revisionLength]
	}
	if revision != "" && modified {
		revision += "-dirty"
	}
	return revision
}

// checkAppBuild returns the passed string unless it contains any characters not in validCharacters
// If any invalid characters are encountered - an empty string is returned
func checkAppBuild(str string) string {
	for _, r := range str {
		if !strings.ContainsRune(validCharacters, r) {
			return ""
		}
	}
	return str
}
