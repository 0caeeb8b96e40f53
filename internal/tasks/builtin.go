package tasks

// Builtin returns every recipe shipped with devsum bound to env.
func Builtin(env *Env) []Task {
	return []Task{
		NewTerraformTask(env),
		NewGoTask(env),
		NewMacosTask(env),
		NewAWSAccountTask(env),
		NewReportTask(env),
		NewAgentTask(env),
		NewValidateTask(env),
	}
}

// NewDefaultRegistry registers Builtin(env).
func NewDefaultRegistry(env *Env) (*Registry, error) {
	r := NewRegistry()
	for _, task := range Builtin(env) {
		if err := r.Register(task); err != nil {
			return nil, err
		}
	}
	return r, nil
}
