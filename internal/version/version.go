// Package version identifies the running build of pkgsmith.
package version

import (
	goversion "github.com/hashicorp/go-version"
)

// Name is the tool name used in user agents, branch names and directories.
const Name = "pkgsmith"

// Set at link time with -ldflags "-X".
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Semver parses Version. Unparseable versions read as 0.0.0 so a
// development build still produces a well-formed user agent.
func Semver() *goversion.Version {
	v, err := goversion.NewVersion(Version)
	if err != nil {
		return goversion.Must(goversion.NewVersion("0.0.0"))
	}
	return v
}

// UserAgent is "pkgsmith/<version>".
func UserAgent() string {
	return Name + "/" + Semver().String()
}

// AtLeast reports whether the running build satisfies constraint, for
// example ">= 0.2".
func AtLeast(constraint string) (bool, error) {
	c, err := goversion.NewConstraint(constraint)
	if err != nil {
		return false, err
	}
	return c.Check(Semver()), nil
}
