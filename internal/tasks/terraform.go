package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/devsum/internal/release"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTerraformBaseURL = "https://releases.hashicorp.com"
	TerraformRepoURL        = "https://github.com/hashicorp/terraform"
	terraformPathTemplate   = "terraform/{{version}}/terraform_{{version}}_{{os}}_{{arch}}.zip"
)

// Tasks package installer for a pinned terraform release binary.
type TerraformTask struct {
	env *Env
}

func NewTerraformTask(env *Env) TerraformTask {
	return TerraformTask{env: env}
}

func (t TerraformTask) Metadata() Metadata {
	return Metadata{
		ID:          "install-terraform",
		Name:        "Install Terraform",
		Description: "Install a terraform release binary into the local bin dir",
	}
}

func (t TerraformTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "version", Description: "terraform version (MAJOR.MINOR.PATCH or latest)", Required: true},
		{Name: "bin_dir", Description: "directory receiving the binary", Default: "~/bin"},
		{Name: "base_url", Description: "release mirror", Default: DefaultTerraformBaseURL},
	}
}

func (t TerraformTask) Run(ctx context.Context, args Args) (Result, error) {
	seq := newSequence(ctx, t.env.Runner)

	version := args.String("version")
	if release.IsLatest(version) {
		latest, err := release.LatestTag(ctx, t.env.Runner, TerraformRepoURL, "v")
		if err != nil {
			return Result{}, err
		}
		version = latest
	}
	if _, err := release.ValidateVersion(version); err != nil {
		return Result{}, fmt.Errorf("please provide a valid terraform version: %w", err)
	}

	platform, err := t.env.Platform()
	if err != nil {
		return Result{}, err
	}
	url, err := release.Template{BaseURL: args.String("base_url"), Path: terraformPathTemplate}.Render(version, platform)
	if err != nil {
		return Result{}, err
	}
	binDir := expandHome(args.String("bin_dir"), t.env.HomeDir)
	log.Debug().Str("url", url).Stringer("platform", platform).Str("bin_dir", binDir).Msg("terraform release selected")

	tmp, err := t.env.Fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, downloadError(url, err)
	}
	defer tmp.Close()

	bin, err := release.ExtractFile(tmp.Path, "terraform", binDir, 0o700)
	if err != nil {
		return Result{}, downloadError(url, err)
	}

	out, err := seq.run(bin, "version")
	if err != nil {
		return Result{Steps: seq.steps}, downloadError(url, err)
	}
	return Result{
		Summary: "Version installed: " + firstLine(out),
		Steps:   seq.steps,
	}, nil
}

func downloadError(url string, err error) error {
	return fmt.Errorf("something wrong downloading %s: %w", url, err)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
