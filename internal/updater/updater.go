// Package updater replaces the running binary with the latest GitHub release.
package updater

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/guiyumin/vclip/internal/core/version"
)

const (
	repoOwner = "guiyumin"
	repoName  = "vclip"
)

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, err
	}
	return selfupdate.NewUpdater(selfupdate.Config{Source: source})
}

// currentVersion strips the leading "v" for semver comparison.
func currentVersion() string {
	return strings.TrimPrefix(version.Version, "v")
}

// IsDevBuild reports whether the binary was built without a release version.
func IsDevBuild() bool {
	return version.Version == "" || version.Version == "dev"
}

// CheckUpdate checks if a new version is available
func CheckUpdate(ctx context.Context) (*selfupdate.Release, bool, error) {
	updater, err := newUpdater()
	if err != nil {
		return nil, false, err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return nil, false, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if IsDevBuild() {
		return latest, true, nil
	}
	if latest.LessOrEqual(currentVersion()) {
		return latest, false, nil
	}
	return latest, true, nil
}

// Update performs the self-update and returns the installed version, or ""
// when already up to date.
func Update(ctx context.Context) (string, error) {
	updater, err := newUpdater()
	if err != nil {
		return "", err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.NewRepositorySlug(repoOwner, repoName))
	if err != nil {
		return "", fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return "", fmt.Errorf("no releases found for %s/%s (%s)", repoOwner, repoName, PlatformAssetName())
	}
	if !IsDevBuild() && latest.LessOrEqual(currentVersion()) {
		return "", nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return "", fmt.Errorf("failed to update: %w", err)
	}
	return latest.Version(), nil
}

// PlatformAssetName returns the expected asset name for the current platform
func PlatformAssetName() string {
	return fmt.Sprintf("vclip_%s_%s", runtime.GOOS, runtime.GOARCH)
}
