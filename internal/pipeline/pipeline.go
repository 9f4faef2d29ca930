// Package pipeline runs named steps in order over shared state.
package pipeline

import (
	"context"
	"fmt"
	"time"
)

// Step represents a discrete unit of work executed within a pipeline.
// Implementations should mutate the provided state and return an error
// when the pipeline should halt.
type Step[S any] interface {
	Name() string
	Run(ctx context.Context, state S) error
}

// FuncStep allows registering plain functions as pipeline steps.
type FuncStep[S any] struct {
	name string
	fn   func(context.Context, S) error
}

// Name returns the human readable identifier for the step.
func (s FuncStep[S]) Name() string { return s.name }

// Run executes the wrapped function.
func (s FuncStep[S]) Run(ctx context.Context, state S) error { return s.fn(ctx, state) }

// NewFuncStep constructs a pipeline step from the provided function.
func NewFuncStep[S any](name string, fn func(context.Context, S) error) FuncStep[S] {
	return FuncStep[S]{name: name, fn: fn}
}

// Hook observes each finished step. err is nil on success.
type Hook func(name string, elapsed time.Duration, err error)

// Pipeline orchestrates the sequential execution of registered steps.
type Pipeline[S any] struct {
	steps []Step[S]
	hooks []Hook
}

// New returns an empty pipeline.
func New[S any]() *Pipeline[S] { return &Pipeline[S]{} }

// Add appends a step to the pipeline.
func (p *Pipeline[S]) Add(step Step[S]) {
	p.steps = append(p.steps, step)
}

// Observe registers a hook called after every executed step.
func (p *Pipeline[S]) Observe(h Hook) {
	p.hooks = append(p.hooks, h)
}

// Len reports the number of registered steps.
func (p *Pipeline[S]) Len() int { return len(p.steps) }

// Execute runs all steps in order, passing the shared state to each.
// An error returned by any step stops execution and is wrapped with the
// failing step's name. A cancelled context stops execution before the next
// step starts.
func (p *Pipeline[S]) Execute(ctx context.Context, state S) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s step not started: %w", step.Name(), err)
		}
		start := time.Now()
		err := step.Run(ctx, state)
		for _, h := range p.hooks {
			h(step.Name(), time.Since(start), err)
		}
		if err != nil {
			return fmt.Errorf("%s step failed: %w", step.Name(), err)
		}
	}
	return nil
}
