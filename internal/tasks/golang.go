package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/devsum/internal/release"
	"github.com/rs/zerolog/log"
)

const (
	DefaultGoBaseURL   = "https://go.dev/dl/"
	GoRepoURL          = "https://go.googlesource.com/go"
	goArchiveTemplate  = "go{{version}}.{{os}}-{{arch}}.tar.gz"
	defaultGoInstallTo = "~/.local"
)

// Tasks package installer for the Go toolchain and optional go-installed tools.
type GoTask struct {
	env *Env
}

func NewGoTask(env *Env) GoTask {
	return GoTask{env: env}
}

func (t GoTask) Metadata() Metadata {
	return Metadata{
		ID:          "install-go",
		Name:        "Install Go",
		Description: "Install a Go toolchain release and optional go tools",
	}
}

func (t GoTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "version", Description: "go version (MAJOR.MINOR.PATCH or latest)", Required: true},
		{Name: "install_dir", Description: "parent directory of the go root", Default: defaultGoInstallTo},
		{Name: "base_url", Description: "release mirror", Default: DefaultGoBaseURL},
		{Name: "tools", Description: "comma list of module@version to go install"},
	}
}

func (t GoTask) Run(ctx context.Context, args Args) (Result, error) {
	seq := newSequence(ctx, t.env.Runner)

	version := args.String("version")
	if release.IsLatest(version) {
		latest, err := release.LatestTag(ctx, t.env.Runner, GoRepoURL, "go")
		if err != nil {
			return Result{}, err
		}
		version = latest
	}
	if _, err := release.ValidateVersion(version); err != nil {
		return Result{}, fmt.Errorf("please provide a valid go version: %w", err)
	}

	platform, err := t.env.Platform()
	if err != nil {
		return Result{}, err
	}
	if platform.OS == "windows" {
		return Result{}, fmt.Errorf("%w: %s (go archives are zip on windows)", ErrUnsupportedOS, platform.OS)
	}
	url, err := release.Template{BaseURL: args.String("base_url"), Path: goArchiveTemplate}.Render(version, platform)
	if err != nil {
		return Result{}, err
	}

	installDir := expandHome(args.String("install_dir"), t.env.HomeDir)
	goRoot := filepath.Join(installDir, "go")

	tmp, err := t.env.Fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, downloadError(url, err)
	}
	defer tmp.Close()

	if err := os.RemoveAll(goRoot); err != nil {
		return Result{}, fmt.Errorf("remove previous go root %s: %w", goRoot, err)
	}
	files, err := release.ExtractTarGz(tmp.Path, installDir)
	if err != nil {
		return Result{}, downloadError(url, err)
	}
	log.Debug().Str("goroot", goRoot).Stringer("platform", platform).Int("files", files).Msg("go toolchain extracted")

	goBin := filepath.Join(goRoot, "bin", "go")
	out, err := seq.run(goBin, "version")
	if err != nil {
		return Result{Steps: seq.steps}, downloadError(url, err)
	}

	toolList := args.List("tools")
	if !args.Has("tools") {
		toolList = t.env.Manifest.Go.Tools
	}
	for _, tool := range toolList {
		seq.try(goBin, "install", tool)
	}

	res := Result{
		Summary: "Version installed: " + firstLine(out),
		Steps:   seq.steps,
	}
	if err := seq.err(); err != nil {
		return res, err
	}
	return res, nil
}
