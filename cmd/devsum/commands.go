package main

import (
	"fmt"
	"strings"

	"github.com/danmuck/devsum/internal/config"
	"github.com/danmuck/devsum/internal/console"
	"github.com/danmuck/devsum/internal/logging"
	"github.com/danmuck/devsum/internal/observability"
	"github.com/danmuck/devsum/internal/tasks"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type app struct {
	env        *tasks.Env
	registry   *tasks.Registry
	dispatcher *tasks.Dispatcher
	cfg        appConfig

	configPath   string
	manifestPath string
	metricsFile  string
	plain        bool
	verbose      bool
}

func newRootCommand(env *tasks.Env) (*cobra.Command, error) {
	registry, err := tasks.NewDefaultRegistry(env)
	if err != nil {
		return nil, err
	}
	a := &app{
		env:        env,
		registry:   registry,
		dispatcher: tasks.NewDispatcher(registry),
	}

	root := &cobra.Command{
		Use:               "devsum",
		Short:             "Provision developer machines and cloud resources",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/devsum/config.toml)")
	flags.StringVar(&a.manifestPath, "manifest", "", "workstation manifest (default ~/.config/devsum/manifest.toml)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write prometheus textfile metrics here")
	flags.BoolVar(&a.plain, "plain", false, "disable coloured output")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print every command a task ran")

	root.AddCommand(a.listCommand())
	for _, task := range registry.List() {
		root.AddCommand(a.taskCommand(task))
	}
	return root, nil
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logging.ConfigureRuntime()

	path, explicit := a.configPath, true
	if path == "" {
		path, explicit = defaultConfigPath(a.env.HomeDir), false
	}
	cfg, err := loadAppConfig(path, explicit, a.env.HomeDir)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" && !logging.SetLevel(cfg.LogLevel) {
		log.Debug().Str("log_level", cfg.LogLevel).Msg("config log level ignored")
	}
	observability.InitLogger("devsum")

	if a.metricsFile != "" {
		cfg.MetricsFile = expandPath(a.metricsFile, a.env.HomeDir)
	}
	if a.plain {
		cfg.Plain = true
	}

	manifestPath, manifestExplicit := cfg.ManifestPath, false
	if a.manifestPath != "" {
		manifestPath, manifestExplicit = expandPath(a.manifestPath, a.env.HomeDir), true
	}
	if manifestExplicit || fileExists(manifestPath) {
		manifest, err := config.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		a.env.Manifest = manifest
		log.Debug().Str("path", manifestPath).Msg("loaded manifest")
	}

	a.cfg = cfg
	return nil
}

func (a *app) printer(cmd *cobra.Command) console.Printer {
	return console.Printer{Out: cmd.OutOrStdout(), Plain: a.cfg.Plain}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := a.printer(cmd)
			for _, task := range a.registry.List() {
				meta := task.Metadata()
				p.Success("%-20s %s", meta.ID, meta.Description)
				for _, spec := range task.Args() {
					p.Note("    %s", describeArg(spec))
				}
			}
			return nil
		},
	}
}

func (a *app) taskCommand(task tasks.Task) *cobra.Command {
	meta := task.Metadata()
	cmd := &cobra.Command{
		Use:   meta.ID + " [name=value ...]",
		Short: meta.Description,
		Long:  meta.Name + ": " + meta.Description,
		RunE: func(cmd *cobra.Command, positional []string) error {
			return a.runTask(cmd, task, positional)
		},
	}
	for _, spec := range task.Args() {
		cmd.Flags().String(flagName(spec.Name), "", describeArg(spec))
	}
	return cmd
}

// runTask merges config defaults, name=value words and flags, in that
// order of precedence, then dispatches.
func (a *app) runTask(cmd *cobra.Command, task tasks.Task, positional []string) error {
	id := task.Metadata().ID
	args := tasks.Args{}
	for name, value := range a.cfg.TaskDefaults[id] {
		args[name] = value
	}
	for _, word := range positional {
		name, value, ok := strings.Cut(word, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("argument %q: expected name=value", word)
		}
		args[strings.TrimSpace(name)] = value
	}
	for _, spec := range task.Args() {
		if f := cmd.Flags().Lookup(flagName(spec.Name)); f != nil && f.Changed {
			args[spec.Name] = f.Value.String()
		}
	}

	res, err := a.dispatcher.Run(cmd.Context(), id, args)
	if werr := observability.WriteTextfile(a.cfg.MetricsFile); werr != nil {
		log.Warn().Err(werr).Msg("metrics not written")
	}

	p := a.printer(cmd)
	if a.verbose {
		for _, step := range res.Steps {
			p.Note("$ %s (exit %d)", strings.Join(step.Command, " "), step.ExitCode)
		}
	}
	if res.Output != "" {
		p.Raw(res.Output)
	}
	if err != nil {
		if res.Summary != "" {
			p.Failure("%s", res.Summary)
		}
		return err
	}
	switch res.Status {
	case tasks.StatusSkipped:
		p.Note("%s", res.Summary)
	default:
		if res.Summary != "" {
			p.Success("%s", res.Summary)
		}
	}
	return nil
}

func flagName(arg string) string {
	return strings.ReplaceAll(arg, "_", "-")
}

func describeArg(spec tasks.ArgSpec) string {
	var b strings.Builder
	b.WriteString(spec.Name)
	if spec.Description != "" {
		b.WriteString(": ")
		b.WriteString(spec.Description)
	}
	if spec.Required {
		b.WriteString(" (required)")
	}
	if spec.Default != "" {
		fmt.Fprintf(&b, " (default %q)", spec.Default)
	}
	return b.String()
}
