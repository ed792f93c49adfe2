package version

import "fmt"

// Version, GitCommit and BuildDate are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/netreconf/bgpplan/pkg/version.Version=v1.0.0 \
//	  -X github.com/netreconf/bgpplan/pkg/version.GitCommit=abc1234 \
//	  -X github.com/netreconf/bgpplan/pkg/version.BuildDate=2026-07-30"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a single human-readable line combining all three build
// values, the form printed by `bgpplan version`.
func Info() string {
	return fmt.Sprintf("bgpplan %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
