// Package saga runs a fixed sequence of steps and undoes the completed ones
// when a later step fails.
package saga

import (
	"context"
	"fmt"
	"io"
	"log"
)

// Step is one unit of work. Compensate may be nil when there is nothing to undo.
type Step struct {
	Name       string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepError reports which step failed.
type StepError struct {
	Step string
	Err  error
	// CompensationErrs holds failures of the undo actions, keyed by step name.
	CompensationErrs map[string]error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga step %q failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Compensated reports whether every undo action succeeded.
func (e *StepError) Compensated() bool {
	return len(e.CompensationErrs) == 0
}

type Saga struct {
	name   string
	steps  []Step
	logger *log.Logger
}

func New(name string, logger *log.Logger, steps ...Step) *Saga {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Saga{name: name, steps: steps, logger: logger}
}

// Run executes steps in order. On the first failure it runs the compensations
// of the completed steps in reverse order and returns a *StepError.
// Compensations run on a context that is not cancelled with ctx.
func (s *Saga) Run(ctx context.Context) error {
	done := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := step.Action(ctx); err != nil {
			stepErr := &StepError{Step: step.Name, Err: err}
			s.compensate(context.WithoutCancel(ctx), done, stepErr)
			return stepErr
		}
		done = append(done, step)
	}
	return nil
}

func (s *Saga) compensate(ctx context.Context, done []Step, stepErr *StepError) {
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			if stepErr.CompensationErrs == nil {
				stepErr.CompensationErrs = map[string]error{}
			}
			stepErr.CompensationErrs[step.Name] = err
			s.logger.Printf("saga %s: compensate step=%s after failed_step=%s error=%v", s.name, step.Name, stepErr.Step, err)
			continue
		}
		s.logger.Printf("saga %s: compensated step=%s after failed_step=%s", s.name, step.Name, stepErr.Step)
	}
}
