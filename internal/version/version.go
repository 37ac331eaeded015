// Package version reports build information. Version, GitCommit and
// BuildDate are set at link time:
//
//	go build -ldflags "-X github.com/vibesql/sqlzoo/internal/version.Version=0.2.0"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Platform  string
}

func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

func (i Info) String() string {
	return fmt.Sprintf("sqlzoo %s (%s, %s)", i.Version, i.GitCommit, i.Platform)
}

// Short returns the version number alone.
func (i Info) Short() string {
	return i.Version
}

func (i Info) Full() string {
	return fmt.Sprintf(`sqlzoo %s
  commit:   %s
  built:    %s
  go:       %s
  platform: %s`,
		i.Version,
		i.GitCommit,
		i.BuildDate,
		i.GoVersion,
		i.Platform,
	)
}
