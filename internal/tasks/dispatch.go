package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/devsum/internal/observability"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrMissingArg  = errors.New("missing required argument")
	ErrUnknownArg  = errors.New("unknown argument")
)

// Dispatcher resolves a task by id, fills its arguments and runs it.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

func (d *Dispatcher) Run(ctx context.Context, id string, args Args) (Result, error) {
	id = strings.TrimSpace(id)
	task, ok := d.registry.Resolve(id)
	if !ok {
		return Result{Task: id, Status: StatusFailed}, fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}

	resolved, err := ResolveArgs(task.Args(), args)
	if err != nil {
		return Result{Task: id, Status: StatusFailed}, fmt.Errorf("task=%s: %w", id, err)
	}

	log.Info().Str("task", id).Msg("task start")
	start := time.Now()
	res, err := task.Run(ctx, resolved)
	elapsed := time.Since(start)
	observability.RecordTaskRun(id, elapsed, err == nil)

	res.Task = id
	if err != nil {
		res.Status = StatusFailed
		log.Error().Err(err).Str("task", id).Dur("elapsed", elapsed).Msg("task failed")
		return res, fmt.Errorf("task=%s: %w", id, err)
	}
	if res.Status == "" {
		res.Status = StatusOK
	}
	log.Info().Str("task", id).Str("status", res.Status).Dur("elapsed", elapsed).Msg("task done")
	return res, nil
}

// ResolveArgs applies defaults and checks required and unknown names.
func ResolveArgs(specs []ArgSpec, in Args) (Args, error) {
	known := make(map[string]ArgSpec, len(specs))
	for _, spec := range specs {
		known[spec.Name] = spec
	}

	var unknown []string
	out := make(Args, len(specs))
	for name, value := range in {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
			continue
		}
		out[name] = strings.TrimSpace(value)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s", ErrUnknownArg, strings.Join(unknown, ", "))
	}

	for _, spec := range specs {
		if out[spec.Name] == "" && spec.Default != "" {
			out[spec.Name] = spec.Default
		}
		if spec.Required && out[spec.Name] == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingArg, spec.Name)
		}
	}
	return out, nil
}
