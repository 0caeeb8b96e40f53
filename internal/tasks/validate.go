package tasks

import (
	"context"
	"fmt"
	"strings"
)

// ValidateTask checks formatting and vets the Go sources under a path.
type ValidateTask struct {
	env *Env
}

func NewValidateTask(env *Env) ValidateTask {
	return ValidateTask{env: env}
}

func (t ValidateTask) Metadata() Metadata {
	return Metadata{
		ID:          "validate",
		Name:        "Validate sources",
		Description: "Run gofmt and go vet over a source tree",
	}
}

func (t ValidateTask) Args() []ArgSpec {
	return []ArgSpec{
		{Name: "path", Description: "source tree", Default: "."},
	}
}

func (t ValidateTask) Run(ctx context.Context, args Args) (Result, error) {
	path := expandHome(args.String("path"), t.env.HomeDir)
	seq := newSequence(ctx, t.env.Runner)

	var problems []string
	unformatted, err := seq.run("gofmt", "-l", path)
	if err != nil {
		problems = append(problems, err.Error())
	} else if unformatted != "" {
		problems = append(problems, "not gofmt-ed: "+strings.Join(strings.Fields(unformatted), ", "))
	}
	if _, err := seq.run("go", "-C", path, "vet", "./..."); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return Result{Summary: "Not valid", Steps: seq.steps}, fmt.Errorf("%w: %s", ErrNotValid, strings.Join(problems, "; "))
	}
	return Result{Summary: "All files linted successfully", Steps: seq.steps}, nil
}
