package release

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/danmuck/devsum/internal/tools"
)

var ErrNoTags = errors.New("release: no release tags found")

// LatestTag lists remote tags with git and returns the highest stable
// version after stripping prefix, e.g. "v" or "go".
func LatestTag(ctx context.Context, runner tools.CommandRunner, repoURL, prefix string) (string, error) {
	out, err := tools.Exec(ctx, runner, "git", "ls-remote", "--tags", "--refs", repoURL)
	if err != nil {
		return "", fmt.Errorf("list tags repo=%q: %w", repoURL, err)
	}
	return pickLatest(out, prefix, repoURL)
}

func pickLatest(lsRemote, prefix, repoURL string) (string, error) {
	var best *semver.Version
	bestRaw := ""
	scanner := bufio.NewScanner(strings.NewReader(lsRemote))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		tag, ok := strings.CutPrefix(fields[1], "refs/tags/")
		if !ok {
			continue
		}
		raw, ok := strings.CutPrefix(tag, prefix)
		if !ok {
			continue
		}
		v, err := semver.NewVersion(raw)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	if best == nil {
		return "", fmt.Errorf("%w: repo=%q prefix=%q", ErrNoTags, repoURL, prefix)
	}
	return bestRaw, nil
}
