package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrTaskExists      = errors.New("task already exists")
	ErrTaskNil         = errors.New("task is nil")
	ErrInvalidMetadata = errors.New("invalid task metadata")
)

// Registry stores tasks by stable identifier.
type Registry struct {
	items map[string]Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Task)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds a task to the registry.
func (r *Registry) Register(task Task) error {
	if task == nil {
		return ErrTaskNil
	}

	meta := task.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, meta.ID)
	}
	r.items[meta.ID] = task
	return nil
}

// Resolve returns a task by id.
func (r *Registry) Resolve(id string) (Task, bool) {
	task, ok := r.items[id]
	return task, ok
}

// List returns tasks in deterministic id order.
func (r *Registry) List() []Task {
	list := make([]Task, 0, len(r.items))
	for _, task := range r.items {
		list = append(list, task)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Metadata().ID < list[j].Metadata().ID
	})
	return list
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
