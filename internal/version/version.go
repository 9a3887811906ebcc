// Package version reports build metadata for the truckscout binary.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/truckscout/internal/version.Version=1.2.0 \
//	  -X github.com/jmylchreest/truckscout/internal/version.Commit=abc1234"
//
// A binary installed with `go install` falls back to the module version and
// VCS settings embedded by the toolchain.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the JSON shape of `truckscout version --json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Site      string `json:"site"`
}

// Get returns build metadata plus the site the binary is configured for.
func Get(site string) Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Site:      site,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi)
	}
	return info
}

func fillFromBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}

	var revision, modified, vcsTime string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if info.Commit == "unknown" && len(revision) >= 7 {
		info.Commit = revision[:7]
		if modified == "true" {
			info.Commit += "-dirty"
		}
	}
	if info.BuildDate == "unknown" && vcsTime != "" {
		info.BuildDate = vcsTime
	}
}

// Full renders info for humans.
func (i Info) Full() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "truckscout %s (%s, built %s)\n", i.Version, i.Commit, i.BuildDate)
	fmt.Fprintf(&sb, "  Site:       %s\n", i.Site)
	fmt.Fprintf(&sb, "  Go version: %s %s", i.GoVersion, i.Platform)
	return sb.String()
}
