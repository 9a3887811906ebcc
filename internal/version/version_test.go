package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestInfo_Full(t *testing.T) {
	out := Info{
		Version:   "1.2.0",
		Commit:    "abc1234",
		BuildDate: "2026-10-01T00:00:00Z",
		GoVersion: "go1.25.5",
		Platform:  "linux/amd64",
		Site:      "https://www.truckscout24.de",
	}.Full()

	for _, want := range []string{
		"truckscout 1.2.0 (abc1234, built 2026-10-01T00:00:00Z)",
		"Site:       https://www.truckscout24.de",
		"go1.25.5 linux/amd64",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestFillFromBuildInfo(t *testing.T) {
	info := Info{Version: "dev", Commit: "unknown", BuildDate: "unknown"}
	fillFromBuildInfo(&info, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if info.Version != "0.3.1" {
		t.Errorf("expected module version, got %q", info.Version)
	}
	if info.Commit != "0123456-dirty" {
		t.Errorf("expected short dirty revision, got %q", info.Commit)
	}
	if info.BuildDate != "2026-09-30T12:00:00Z" {
		t.Errorf("expected vcs time, got %q", info.BuildDate)
	}
}

func TestFillFromBuildInfo_LdflagsWin(t *testing.T) {
	info := Info{Version: "1.0.0", Commit: "feedbee", BuildDate: "2026-01-01"}
	fillFromBuildInfo(&info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	if info.Version != "1.0.0" || info.Commit != "feedbee" {
		t.Errorf("ldflags values should not be replaced, got %+v", info)
	}
}
