package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/devsum/internal/config"
	"github.com/danmuck/devsum/internal/remote"
	"github.com/danmuck/devsum/internal/tools"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultChecks is the diagnostic set used when the manifest has none.
var DefaultChecks = []config.CheckConfig{
	{Name: "uname", Command: []string{"uname", "-a"}},
	{Name: "uptime", Command: []string{"uptime"}},
	{Name: "disk", Command: []string{"df", "-h"}},
	{Name: "memory", Command: []string{"free", "-m"}},
	{Name: "docker", Command: []string{"docker", "ps", "--format", "{{.Names}}\t{{.Image}}\t{{.Status}}"}},
}

// Report is the rendered outcome of a diagnostic run on one host.
type Report struct {
	Host        string        `json:"host" yaml:"host"`
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Checks      []CheckResult `json:"checks" yaml:"checks"`
}

type CheckResult struct {
	Name     string   `json:"name" yaml:"name"`
	Command  []string `json:"command" yaml:"command"`
	ExitCode int32    `json:"exit_code" yaml:"exit_code"`
	Stdout   string   `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string   `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
}

func (c CheckResult) OK() bool {
	return c.Error == ""
}

// ReportTask collects a diagnostic report from a remote host over SSH.
type ReportTask struct {
	env *Env
	now func() time.Time
}

func NewReportTask(env *Env) ReportTask {
	return ReportTask{env: env, now: time.Now}
}

func (t ReportTask) Metadata() Metadata {
	return Metadata{
		ID:          "report",
		Name:        "Diagnostic report",
		Description: "Run diagnostic commands on a host over SSH and print a report",
	}
}

func (t ReportTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "host", Description: "target host[:port]", Required: true},
		{Name: "user", Description: "ssh user (default $USER)"},
		{Name: "port", Description: "ssh port"},
		{Name: "key", Description: "private key path", Default: "~/.ssh/id_ed25519"},
		{Name: "known_hosts", Description: "known_hosts path (default ~/.ssh/known_hosts)"},
		{Name: "insecure", Description: "skip host key verification", Default: "false"},
		{Name: "timeout", Description: "connect timeout", Default: "10s"},
		{Name: "format", Description: "text, yaml or json", Default: "text"},
		{Name: "checks", Description: "comma list of check names (default all)"},
	}
}

func (t ReportTask) Run(ctx context.Context, args Args) (Result, error) {
	format := strings.ToLower(args.String("format"))
	if format != "text" && format != "yaml" && format != "json" {
		return Result{}, fmt.Errorf("%w: format=%q", ErrInvalidArg, format)
	}
	timeout, err := time.ParseDuration(args.String("timeout"))
	if err != nil {
		return Result{}, fmt.Errorf("%w: timeout=%q: %v", ErrInvalidArg, args.String("timeout"), err)
	}
	checks, err := t.selectChecks(args.List("checks"))
	if err != nil {
		return Result{}, err
	}

	user := args.String("user")
	if user == "" {
		user = os.Getenv("USER")
	}
	runner := remote.SSHRunner{
		Host:                        args.String("host"),
		Port:                        args.String("port"),
		User:                        user,
		KeyPath:                     expandHome(args.String("key"), t.env.HomeDir),
		KnownHostsPath:              expandHome(args.String("known_hosts"), t.env.HomeDir),
		InsecureSkipHostKeyChecking: args.Bool("insecure"),
		Timeout:                     timeout,
	}

	session, err := t.env.Dial(ctx, runner)
	if err != nil {
		return Result{}, fmt.Errorf("connect host=%s: %w", runner.Host, err)
	}
	defer session.Close()

	report := Report{Host: runner.Host, GeneratedAt: t.now().UTC()}
	failed := 0
	for _, check := range checks {
		res := runCheck(ctx, session, check)
		if !res.OK() {
			failed++
			log.Warn().Str("check", check.Name).Int32("exit", res.ExitCode).Msg("diagnostic check failed")
		}
		report.Checks = append(report.Checks, res)
	}

	rendered, err := RenderReport(report, format)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Summary: fmt.Sprintf("Report for %s: %d/%d checks ok", report.Host, len(checks)-failed, len(checks)),
		Output:  rendered,
	}
	if failed == len(checks) {
		return res, fmt.Errorf("%w: host=%s", ErrChecksFailed, report.Host)
	}
	return res, nil
}

func (t ReportTask) selectChecks(names []string) ([]config.CheckConfig, error) {
	available := t.env.Manifest.Report.Checks
	if len(available) == 0 {
		available = DefaultChecks
	}
	if len(names) == 0 {
		return available, nil
	}
	byName := make(map[string]config.CheckConfig, len(available))
	for _, c := range available {
		byName[c.Name] = c
	}
	out := make([]config.CheckConfig, 0, len(names))
	for _, name := range names {
		c, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown check %q", ErrInvalidArg, name)
		}
		out = append(out, c)
	}
	return out, nil
}

func runCheck(ctx context.Context, runner tools.CommandRunner, check config.CheckConfig) CheckResult {
	out, err := tools.Exec(ctx, runner, check.Command[0], check.Command[1:]...)
	res := CheckResult{Name: check.Name, Command: check.Command, Stdout: out}
	if err != nil {
		res.Error = err.Error()
		var cmdErr *tools.CommandError
		if errors.As(err, &cmdErr) {
			res.ExitCode = cmdErr.ExitCode
			res.Stderr = cmdErr.Stderr
			res.Error = cmdErr.Err.Error()
		}
	}
	return res
}

// RenderReport formats r as text, yaml or json.
func RenderReport(r Report, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case "text":
		var b strings.Builder
		fmt.Fprintf(&b, "host: %s\ngenerated: %s\n", r.Host, r.GeneratedAt.Format(time.RFC3339))
		for _, c := range r.Checks {
			status := "ok"
			if !c.OK() {
				status = fmt.Sprintf("FAILED exit=%d", c.ExitCode)
			}
			fmt.Fprintf(&b, "\n== %s (%s) [%s]\n", c.Name, strings.Join(c.Command, " "), status)
			if c.Stdout != "" {
				b.WriteString(c.Stdout)
				b.WriteByte('\n')
			}
			if c.Stderr != "" {
				fmt.Fprintf(&b, "stderr: %s\n", c.Stderr)
			}
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: format=%q", ErrInvalidArg, format)
	}
}
