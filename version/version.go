// Package version reports the pinvokegen build and checks min_version
// constraints from pinvokegen.toml.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/pinvokegen/errors"
)

const dev = "dev"

// Set with -ldflags "-X github.com/teranos/pinvokegen/version.Version=...".
// Left unset, Get falls back to the module build info stamped by go install.
var (
	CommitHash = dev
	BuildTime  = "unknown"
	Version    = dev
)

// Info describes the running binary
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

func Get() Info {
	info := Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fromBuildInfo(&info, bi)
	}
	return info
}

// fromBuildInfo fills fields the linker left at their defaults
func fromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == dev {
		if v := strings.TrimPrefix(bi.Main.Version, "v"); v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.CommitHash == dev:
			info.CommitHash = s.Value
		case s.Key == "vcs.time" && info.BuildTime == "unknown":
			info.BuildTime = s.Value
		}
	}
}

func (i Info) String() string {
	return fmt.Sprintf("pinvokegen %s (commit %s, built %s)", i.Version, i.Short(), i.BuildTime)
}

// Short is the abbreviated commit hash
func (i Info) Short() string {
	if len(i.CommitHash) > 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}

// Satisfies checks the running version against a constraint such as ">= 1.2".
// Development builds satisfy every constraint.
func (i Info) Satisfies(constraint string) error {
	if constraint == "" || i.Version == dev {
		return nil
	}

	ver, err := semver.NewVersion(i.Version)
	if err != nil {
		return errors.Wrapf(err, "invalid pinvokegen version %s", i.Version)
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", constraint)
	}
	if ok, errs := c.Validate(ver); !ok {
		reason := constraint
		if len(errs) > 0 {
			reason = errs[0].Error()
		}
		return errors.WithHint(
			errors.Newf("pinvokegen %s does not satisfy min_version: %s", i.Version, reason),
			"upgrade pinvokegen or relax min_version",
		)
	}
	return nil
}
