package tasks

import (
	"context"
	"fmt"

	"github.com/danmuck/devsum/internal/release"
)

const DefaultSaltBootstrapURL = "https://github.com/saltstack/salt-bootstrap/releases/latest/download/bootstrap-salt.sh"

// AgentTask installs a Salt minion with the upstream bootstrap script.
type AgentTask struct {
	env *Env
}

func NewAgentTask(env *Env) AgentTask {
	return AgentTask{env: env}
}

func (t AgentTask) Metadata() Metadata {
	return Metadata{
		ID:          "install-agent",
		Name:        "Install Salt minion",
		Description: "Install the Salt configuration-management agent via salt-bootstrap",
	}
}

func (t AgentTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "master", Description: "salt master address"},
		{Name: "minion_id", Description: "minion id (default hostname)"},
		{Name: "version", Description: "salt version, e.g. 3006.1 (default latest stable)"},
		{Name: "bootstrap_url", Description: "salt-bootstrap script", Default: DefaultSaltBootstrapURL},
		{Name: "force", Description: "reinstall when salt-minion is present", Default: "false"},
	}
}

func (t AgentTask) Run(ctx context.Context, args Args) (Result, error) {
	if t.env.LookPath("salt-minion") && !args.Bool("force") {
		return Result{Status: StatusSkipped, Summary: "salt-minion already installed"}, nil
	}

	version := args.String("version")
	if version != "" {
		if _, err := release.ParseLooseVersion(version); err != nil {
			return Result{}, err
		}
	}

	url := args.String("bootstrap_url")
	script, err := t.env.Fetcher.Fetch(ctx, url)
	if err != nil {
		return Result{}, downloadError(url, err)
	}
	defer script.Close()

	cmd := []string{script.Path}
	if master := args.String("master"); master != "" {
		cmd = append(cmd, "-A", master)
	}
	if id := args.String("minion_id"); id != "" {
		cmd = append(cmd, "-i", id)
	}
	cmd = append(cmd, "-P", "stable")
	if version != "" {
		cmd = append(cmd, version)
	}

	seq := newSequence(ctx, t.env.Runner)
	if _, err := seq.run("sh", cmd...); err != nil {
		return Result{Steps: seq.steps}, err
	}
	out, err := seq.run("salt-minion", "--version")
	if err != nil {
		return Result{Steps: seq.steps}, err
	}
	return Result{
		Summary: fmt.Sprintf("Agent installed: %s", firstLine(out)),
		Steps:   seq.steps,
	}, nil
}
