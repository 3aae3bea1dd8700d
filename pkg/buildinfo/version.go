// Package buildinfo holds version details stamped into pagesetter binaries.
//
// The linker fills the variables at release time:
//
//	go build -ldflags "-X github.com/matzehuels/pagesetter/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/matzehuels/pagesetter/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/pagesetter/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"

	// Commit is the short git revision.
	Commit = "none"

	// Date is the UTC build time.
	Date = "unknown"
)

// Info is the JSON shape served by the health endpoint.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Current returns the stamped build details.
func Current() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// String renders the details one per line.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template is the cobra version template.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (%s, built %s)\n", Version, Commit, Date)
}
