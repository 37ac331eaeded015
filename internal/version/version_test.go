package version

import (
	"runtime"
	"strings"
	"testing"
)

var testInfo = Info{
	Version:   "1.2.3",
	GitCommit: "abc123",
	BuildDate: "2026-01-01",
	GoVersion: "go1.23.0",
	Platform:  "linux/amd64",
}

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version || info.GitCommit != GitCommit || info.BuildDate != BuildDate {
		t.Errorf("Get() does not reflect the package variables: %+v", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Unexpected platform %s", info.Platform)
	}
}

func TestInfo_String(t *testing.T) {
	want := "sqlzoo 1.2.3 (abc123, linux/amd64)"
	if got := testInfo.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInfo_Short(t *testing.T) {
	if got := testInfo.Short(); got != "1.2.3" {
		t.Errorf("Short() = %q, want 1.2.3", got)
	}
}

func TestInfo_Full(t *testing.T) {
	full := testInfo.Full()

	for _, want := range []string{"sqlzoo 1.2.3", "abc123", "2026-01-01", "go1.23.0", "linux/amd64"} {
		if !strings.Contains(full, want) {
			t.Errorf("Full() missing %q:\n%s", want, full)
		}
	}
	if lines := strings.Count(full, "\n") + 1; lines != 5 {
		t.Errorf("Expected 5 lines, got %d", lines)
	}
}

func TestBuildVariablesOverridable(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "9.9.9"
	if Get().Short() != "9.9.9" {
		t.Error("Version should be picked up at call time")
	}
}
