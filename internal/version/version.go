package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the service version of alfred.
var Version = "0.2.0"

// GetCurrentVersion returns the current version of alfred.
func GetCurrentVersion() string {
	return Version
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// GetMinorVersion extracts the minor version (e.g. "0.2") from a full version string.
func GetMinorVersion(version string) string {
	mm := semver.MajorMinor(canonical(version))
	return strings.TrimPrefix(mm, "v")
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > -1
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(canonical(version), canonical(target)) > 0
}

// SortVersion implements sort.Interface for semver strings.
type SortVersion []string

func (s SortVersion) Len() int {
	return len(s)
}

func (s SortVersion) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

func (s SortVersion) Less(i, j int) bool {
	return semver.Compare(canonical(s[i]), canonical(s[j])) == -1
}
