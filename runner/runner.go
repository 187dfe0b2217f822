package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// OpenStoreFunc connects to the store a run works on. The Runner owns the returned Store and closes it.
type OpenStoreFunc func(ctx context.Context) (bookstore.Store, error)

// Runner executes the query batch.
type Runner struct {
	open     OpenStoreFunc
	cfg      Config
	steps    []Step
	out      io.Writer
	runID    uuid.UUID
	observer observer
}

// New creates a Runner with a validated Config and optional configuration.
func New(open OpenStoreFunc, cfg Config, options ...Option) (*Runner, error) {
	if open == nil {
		return nil, ErrNilOpener
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		open:  open,
		cfg:   cfg,
		steps: buildSteps(cfg),
		out:   os.Stdout,
		runID: runID,
	}

	for _, option := range options {
		if err := option(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// RunID identifies the run in logs, spans, and the Report.
func (r *Runner) RunID() uuid.UUID {
	return r.runID
}

// Steps returns the steps in execution order.
func (r *Runner) Steps() []Step {
	steps := make([]Step, len(r.steps))
	copy(steps, r.steps)

	return steps
}

// Run opens the store, executes every step in order, and closes the store.
//
// A failing step aborts the run with an *OperationError. A failure to close the store is joined with
// ErrClosingStoreFailed into the returned error. If opening fails there is nothing to close.
func (r *Runner) Run(ctx context.Context) (report Report, err error) {
	report = Report{RunID: r.runID, Steps: make([]StepResult, 0, len(r.steps))}

	start := time.Now()
	ctx, span := r.observer.startSpan(ctx, SpanNameRun, map[string]string{LogAttrRunID: r.runID.String()})
	r.observer.info(ctx, LogMsgRunStarted, LogAttrRunID, r.runID.String())

	defer func() {
		duration := time.Since(start)
		status := statusOf(err)

		r.observer.finishSpan(span, status, duration, err)
		r.observer.recordRun(ctx, status)

		if err != nil {
			r.observer.error(ctx, LogMsgRunFailed,
				LogAttrRunID, r.runID.String(), LogAttrStatus, status, LogAttrError, err.Error())

			return
		}

		r.observer.info(ctx, LogMsgRunCompleted,
			LogAttrRunID, r.runID.String(), LogAttrDurationMS, toMilliseconds(duration))
	}()

	store, openErr := r.open(ctx)
	if openErr != nil {
		r.printf("Error occurred: %v\n", openErr)
		return report, errors.Join(ErrConnectionFailed, openErr)
	}

	r.printf("Connected to %s\n", r.cfg.StoreLabel)

	defer func() {
		// a canceled run still closes the store
		if closeErr := store.Close(context.WithoutCancel(ctx)); closeErr != nil {
			r.observer.error(ctx, LogMsgStoreNotClosed, LogAttrRunID, r.runID.String(), LogAttrError, closeErr.Error())
			err = errors.Join(err, ErrClosingStoreFailed, closeErr)
		}

		r.printf("\nConnection closed\n")
	}()

	section := ""

	for _, step := range r.steps {
		if step.Section != section {
			section = step.Section
			r.printf("\n--- %s ---\n", section)
		}

		result, stepErr := r.runStep(ctx, store, step)
		if stepErr != nil {
			r.printf("Error occurred: %v\n", stepErr)
			return report, &OperationError{Step: step.Number, Name: step.Name, Err: stepErr}
		}

		r.printf("%s\n", result.Message)
		report.Steps = append(report.Steps, result)
	}

	return report, nil
}

func (r *Runner) runStep(ctx context.Context, store bookstore.Store, step Step) (StepResult, error) {
	stepNumber := strconv.Itoa(step.Number)

	stepCtx, span := r.observer.startSpan(ctx, SpanNameStep, map[string]string{
		LogAttrStep:     stepNumber,
		LogAttrStepName: step.Name,
	})

	if r.cfg.OperationTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, r.cfg.OperationTimeout)
		defer cancel()
	}

	start := time.Now()
	outcome, err := step.run(stepCtx, store)
	duration := time.Since(start)
	status := statusOf(err)

	r.observer.finishSpan(span, status, duration, err)
	r.observer.recordStep(ctx, step, status, duration)

	if err != nil {
		r.observer.error(ctx, LogMsgStepFailed,
			LogAttrRunID, r.runID.String(),
			LogAttrStep, step.Number,
			LogAttrStepName, step.Name,
			LogAttrStatus, status,
			LogAttrError, err.Error())

		return StepResult{}, err
	}

	r.observer.info(ctx, LogMsgStepCompleted,
		LogAttrRunID, r.runID.String(),
		LogAttrStep, step.Number,
		LogAttrStepName, step.Name,
		LogAttrDurationMS, toMilliseconds(duration))

	return StepResult{
		Number:   step.Number,
		Name:     step.Name,
		Message:  outcome.message,
		Duration: duration,
		Result:   outcome.result,
	}, nil
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
