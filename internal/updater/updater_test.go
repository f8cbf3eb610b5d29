package updater

import (
	"runtime"
	"strings"
	"testing"

	"github.com/guiyumin/vclip/internal/core/version"
)

func TestPlatformAssetName(t *testing.T) {
	got := PlatformAssetName()
	if !strings.HasPrefix(got, "vclip_") || !strings.HasSuffix(got, runtime.GOARCH) {
		t.Errorf("asset name = %q", got)
	}
}

func TestCurrentVersion(t *testing.T) {
	old := version.Version
	defer func() { version.Version = old }()

	version.Version = "v1.2.3"
	if currentVersion() != "1.2.3" || IsDevBuild() {
		t.Errorf("release build misread: %q", currentVersion())
	}
	version.Version = "dev"
	if !IsDevBuild() {
		t.Error("dev build not detected")
	}
}
