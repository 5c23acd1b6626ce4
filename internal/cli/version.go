package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lacquerai/greeter/internal/style"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// releasesURL answers with the latest published release
var releasesURL = "https://api.github.com/repos/lacquerai/greeter/releases/latest"

const releaseCheckTimeout = 10 * time.Second

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display version information for greeter, including build details.`,
	Example: `
  greeter version                # Show basic version info
  greeter version --output json  # Show version info as JSON
  greeter version --check        # Compare with the latest release`,
	RunE: func(cmd *cobra.Command, args []string) error {
		check, _ := cmd.Flags().GetBool("check")
		return showVersion(cmd, check)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().Bool("check", false, "check whether a newer release is available")
}

// VersionInfo represents version information
type VersionInfo struct {
	Version   string       `json:"version" yaml:"version"`
	Commit    string       `json:"commit" yaml:"commit"`
	Date      string       `json:"date" yaml:"date"`
	BuiltBy   string       `json:"built_by" yaml:"built_by"`
	GoVersion string       `json:"go_version" yaml:"go_version"`
	Platform  string       `json:"platform" yaml:"platform"`
	Update    *UpdateCheck `json:"update,omitempty" yaml:"update,omitempty"`
}

// UpdateCheck is the outcome of comparing the running version with the latest release
type UpdateCheck struct {
	LatestVersion string `json:"latest_version" yaml:"latest_version"`
	CurrentIsOld  bool   `json:"current_is_old" yaml:"current_is_old"`
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

func showVersion(cmd *cobra.Command, check bool) error {
	versionInfo := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if check {
		ctx, cancel := context.WithTimeout(cmd.Context(), releaseCheckTimeout)
		defer cancel()

		update, err := checkForUpdate(ctx, Version)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}
		versionInfo.Update = update
	}

	style.Print(cmd.OutOrStdout(), viper.GetString("output"), versionInfo, func(w io.Writer) {
		printText(w, versionInfo)
	})
	return nil
}

func printText(w io.Writer, info VersionInfo) {
	fmt.Fprintf(w, "%s\n", info.Version)
	if info.Update == nil {
		return
	}
	if info.Update.CurrentIsOld {
		fmt.Fprintf(w, "%s A newer version (%s) is available!\n", style.InfoIcon(), info.Update.LatestVersion)
	} else {
		fmt.Fprintf(w, "%s You are running the latest version\n", style.SuccessIcon())
	}
}

// checkForUpdate compares current with the latest release tag
func checkForUpdate(ctx context.Context, current string) (*UpdateCheck, error) {
	latest, err := fetchLatestVersion(ctx)
	if err != nil {
		return nil, err
	}

	return &UpdateCheck{
		LatestVersion: latest,
		CurrentIsOld:  isOutdated(current, latest),
	}, nil
}

// isOutdated reports whether latest is newer than current. Versions that are
// not semver fall back to a string comparison, and dev builds are never old.
func isOutdated(current, latest string) bool {
	currentVersion := normalizeVersion(current)
	latestVersion := normalizeVersion(latest)

	currentSemver, err1 := semver.NewVersion(currentVersion)
	latestSemver, err2 := semver.NewVersion(latestVersion)
	if err1 == nil && err2 == nil {
		return currentSemver.LessThan(latestSemver)
	}

	return current != "dev" && currentVersion != latestVersion
}

// fetchLatestVersion gets the latest release tag from the GitHub API
func fetchLatestVersion(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releasesURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", fmt.Errorf("failed to decode release info: %w", err)
	}
	if release.TagName == "" {
		return "", fmt.Errorf("release info has no tag")
	}

	return release.TagName, nil
}

// normalizeVersion removes 'v' prefix from version strings
func normalizeVersion(version string) string {
	return strings.TrimPrefix(version, "v")
}
