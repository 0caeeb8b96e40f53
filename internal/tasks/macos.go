package tasks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

const DefaultBrewInstallURL = "https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh"

// brewLocations are tried in order; a fresh install is not on the PATH of
// the running process. /opt/homebrew is the Apple Silicon prefix.
var brewLocations = []string{"brew", "/opt/homebrew/bin/brew", "/usr/local/bin/brew"}

// MacosTask bootstraps a fresh macOS workstation through pip, Homebrew,
// mas and npm. A failed command is reported and the sequence carries on.
type MacosTask struct {
	env *Env
}

func NewMacosTask(env *Env) MacosTask {
	return MacosTask{env: env}
}

func (t MacosTask) Metadata() Metadata {
	return Metadata{
		ID:          "setup-macos",
		Name:        "Setup macOS",
		Description: "Bootstrap a fresh macOS installation with pip, Homebrew, App Store and npm apps",
	}
}

func (t MacosTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "pip_apps", Description: "comma list of pip packages (overrides manifest)"},
		{Name: "homebrew_apps", Description: "comma list of brew formulae (overrides manifest)"},
		{Name: "cask_apps", Description: "comma list of brew casks (overrides manifest)"},
		{Name: "appstore_apps", Description: "comma list of App Store ids (overrides manifest)"},
		{Name: "npm_apps", Description: "comma list of global npm packages (overrides manifest)"},
		{Name: "brew_install_url", Description: "Homebrew install script", Default: DefaultBrewInstallURL},
		{Name: "force", Description: "run on a non-darwin host", Default: "false"},
	}
}

func (t MacosTask) Run(ctx context.Context, args Args) (Result, error) {
	if t.env.GOOS != "darwin" && !args.Bool("force") {
		return Result{}, fmt.Errorf("%w: %s (set force=true to override)", ErrUnsupportedOS, t.env.GOOS)
	}
	m := t.env.Manifest.Macos
	pipApps := listOr(args, "pip_apps", m.PipApps)
	brewApps := listOr(args, "homebrew_apps", m.HomebrewApps)
	caskApps := listOr(args, "cask_apps", m.CaskApps)
	storeApps := listOr(args, "appstore_apps", m.AppstoreApps)
	npmApps := listOr(args, "npm_apps", m.NpmApps)

	seq := newSequence(ctx, t.env.Runner)

	seq.try("pip", "install", "-U", "pip")
	for _, app := range pipApps {
		seq.try("pip", "install", "-U", app)
	}

	if brew := t.ensureBrew(ctx, seq, args.String("brew_install_url")); brew != "" {
		for _, app := range brewApps {
			seq.try(brew, "install", app)
			seq.try(brew, "link", app)
		}
		for _, app := range caskApps {
			seq.try(brew, "install", "--cask", app)
		}
		if seq.try(brew, "install", "mas") {
			mas := siblingOf(brew, "mas")
			for _, id := range storeApps {
				seq.try(mas, "install", id)
			}
		}
	}

	for _, app := range npmApps {
		seq.try("npm", "install", "-g", app)
	}

	res := Result{
		Summary: fmt.Sprintf("macOS setup ran %d commands", len(seq.steps)),
		Steps:   seq.steps,
	}
	if err := seq.err(); err != nil {
		return res, err
	}
	return res, nil
}

// ensureBrew returns the brew executable, running the installer when
// none is found. It returns "" when brew is still unusable so the
// dependent steps are skipped.
func (t MacosTask) ensureBrew(ctx context.Context, seq *sequence, installURL string) string {
	if brew := t.findBrew(); brew != "" {
		return brew
	}
	log.Info().Str("url", installURL).Msg("brew not found, running installer")

	script, err := t.env.Fetcher.Fetch(ctx, installURL)
	if err != nil {
		seq.fail(downloadError(installURL, err))
		return ""
	}
	defer script.Close()

	if !seq.try("env", "NONINTERACTIVE=1", "/bin/bash", script.Path) {
		return ""
	}
	brew := t.findBrew()
	if brew == "" {
		seq.fail(fmt.Errorf("%w: brew not found after install in %v", ErrToolMissing, brewLocations))
		return ""
	}
	if _, err := seq.run(brew, "--version"); err != nil {
		seq.record(fmt.Errorf("%w: brew unusable after install: %w", ErrToolMissing, err))
		return ""
	}
	return brew
}

func (t MacosTask) findBrew() string {
	for _, candidate := range brewLocations {
		if t.env.LookPath(candidate) {
			return candidate
		}
	}
	return ""
}

// siblingOf names a tool installed next to brew, bare when brew came from PATH.
func siblingOf(brew, tool string) string {
	if filepath.IsAbs(brew) {
		return filepath.Join(filepath.Dir(brew), tool)
	}
	return tool
}

func listOr(args Args, name string, fallback []string) []string {
	if args.Has(name) {
		return args.List(name)
	}
	return fallback
}
