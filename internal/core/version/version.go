// Package version holds the build version, overridden via -ldflags.
package version

// Version is set at build time:
//
//	go build -ldflags "-X github.com/guiyumin/vclip/internal/core/version.Version=v1.0.0"
var Version = "dev"
