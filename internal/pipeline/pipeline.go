package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the report
// filled in by the steps before it.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error if the step fails critically; soft failures such as
	// an unreachable page are recorded in the report and return nil.
	Do(ctx context.Context, report *model.IngestReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// RunRecorder stores the final state of a run.
type RunRecorder interface {
	SaveRun(ctx context.Context, report *model.IngestReport) error
}

// RunObserver is told when a run finishes.
type RunObserver interface {
	IngestFinished(d time.Duration, failed bool)
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool

	recorder RunRecorder
	observer RunObserver
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The error is still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// WithRunRecorder saves the report once Execute is done, whatever the
// outcome.
func WithRunRecorder(r RunRecorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithRunObserver reports the duration and outcome of every run.
func WithRunObserver(o RunObserver) Option {
	return func(p *Pipeline) {
		p.observer = o
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; steps handle it themselves
// while running. A run stopped by its context is marked Cancelled.
//
// Returns the first error encountered if continueOnError is false,
// or nil if all steps complete (errors are recorded in report).
func (p *Pipeline) Execute(ctx context.Context, report *model.IngestReport) error {
	defer func() {
		p.finish(ctx, report)
	}()

	for _, step := range p.steps {
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctxErr,
			)
			report.Cancelled = true
			return ctxErr
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"seed", report.Seed,
		)

		if stepErr := step.Do(ctx, report); stepErr != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"seed", report.Seed,
				"error", stepErr,
			)

			report.Error = stepErr
			report.ErrorMessage = stepErr.Error()
			if errors.Is(stepErr, context.Canceled) || errors.Is(stepErr, context.DeadlineExceeded) {
				report.Cancelled = true
			}

			if !p.continueOnError {
				return stepErr
			}
		} else {
			p.logger.Debug("step completed",
				"step", step.Name(),
				"seed", report.Seed,
			)
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// finish stamps the end time and hands the report to the recorder and the
// observer. The recorder runs even when ctx is cancelled.
func (p *Pipeline) finish(ctx context.Context, report *model.IngestReport) {
	report.FinishedAt = time.Now()

	if p.observer != nil {
		p.observer.IngestFinished(report.Duration(), report.Failed())
	}

	if p.recorder != nil {
		if err := p.recorder.SaveRun(context.WithoutCancel(ctx), report); err != nil {
			p.logger.Error("failed to record run",
				"run_id", report.RunID,
				"error", err,
			)
		}
	}
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
