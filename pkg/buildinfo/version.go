// Package buildinfo provides version information set at build time.
package buildinfo

import "fmt"

// Version is the application version, overridden at build time via:
//
//	go build -ldflags "-X github.com/HDA-AWA/roomplan/pkg/buildinfo.Version=v1.2.3"
var Version = "dev"

// Commit is the git commit hash, set at build time.
var Commit = "unknown"

// Template returns the version template for cobra's --version output.
func Template() string {
	return fmt.Sprintf("roomplan %s (%s)\n", Version, Commit)
}
