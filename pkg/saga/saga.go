package saga

import (
	"context"
	"errors"
	"fmt"
)

// Step is one leg of a multi-leg payment flow. Compensate undoes a leg
// that completed; it is skipped for the leg that failed.
type Step struct {
	Name       string
	Execute    func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga runs legs in order and unwinds completed ones when a later leg
// fails, e.g. voiding an authorization whose capture was declined.
type Saga struct {
	name  string
	steps []Step
}

// New creates a named saga. The name only appears in errors.
func New(name string) *Saga {
	return &Saga{name: name}
}

// AddStep appends a leg.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs all legs sequentially. On failure it compensates completed
// legs in reverse order and returns the failed leg's index; on success the
// index is -1.
func (s *Saga) Execute(ctx context.Context) (failedStep int, err error) {
	completed := make([]int, 0, len(s.steps))

	for i, step := range s.steps {
		if err := step.Execute(ctx); err != nil {
			compErr := s.compensate(ctx, completed)
			if compErr != nil {
				return i, fmt.Errorf("saga %s: step %q failed (%w), compensation also failed: %v", s.name, step.Name, err, compErr)
			}
			return i, fmt.Errorf("saga %s: step %q failed: %w", s.name, step.Name, err)
		}
		completed = append(completed, i)
	}

	return -1, nil
}

func (s *Saga) compensate(ctx context.Context, completedIndexes []int) error {
	var errs []error
	for i := len(completedIndexes) - 1; i >= 0; i-- {
		step := s.steps[completedIndexes[i]]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %q: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
