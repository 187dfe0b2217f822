// Package runner runs the fixed batch of bookstore queries against one bookstore.Store.
//
// A Runner opens the store through an OpenStoreFunc, executes its steps strictly in order, prints a
// human-readable line per step, and closes an opened store exactly once on every exit path. The first
// failing step aborts the remaining ones; there is no retry and no rollback.
//
// Every query parameter is part of Config, so a run can be pointed at other data without code changes:
//
//	r, err := runner.New(open, runner.DefaultConfig(), runner.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	report, err := r.Run(ctx)
package runner
