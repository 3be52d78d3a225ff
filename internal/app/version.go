package app

import (
	"fmt"
	"runtime"

	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
)

// Name 应用名称
const Name = "Post Revisions Service"

// Overridden at build time with
// -ldflags "-X github.com/haierkeys/post-revisions-service/internal/app.Version=..."
var (
	Version   = "0.3.0"
	GitTag    = "2000.01.01.release"
	BuildTime = "2000-01-01T00:00:00+0800"
)

// BuildInfo 返回编译期注入的版本信息
func BuildInfo() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// VersionLine is the one-line form printed by the version command and the startup banner
func VersionLine() string {
	return fmt.Sprintf("%s v%s (git %s, built %s, %s %s/%s)",
		Name, Version, GitTag, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
