package flow

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-logr/logr"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// -----------------------------------------------------------------------------
// Common types & helpers
// -----------------------------------------------------------------------------

// Wrapf wraps err with formatted context.
//
// It returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}

// Outcome is the result of reconciling a single object: whether it was
// mutated, and an optional error.
type Outcome struct {
	changed bool
	err     error
}

// DidChange reports whether the object was mutated in the cluster.
func (o Outcome) DidChange() bool { return o.changed }

// Error returns the error carried by the Outcome, if any.
func (o Outcome) Error() error { return o.err }

// Wrapf wraps the Outcome error with formatted context. It is a no-op when
// there is no error.
func (o Outcome) Wrapf(format string, args ...any) Outcome {
	o.err = Wrapf(o.err, format, args...)
	return o
}

// Unchanged indicates that nothing was mutated.
func Unchanged() Outcome { return Outcome{} }

// Changed indicates that the object was mutated.
func Changed() Outcome { return Outcome{changed: true} }

// ChangedIf is Changed when cond holds, Unchanged otherwise.
func ChangedIf(cond bool) Outcome { return Outcome{changed: cond} }

// Fail indicates that reconciliation failed and nothing was mutated.
func Fail(e error) Outcome {
	if e == nil {
		panic("flow.Fail: nil error")
	}
	return Outcome{err: e}
}

// Failf is like Fail, but wraps err using Wrapf(format, args...).
func Failf(err error, format string, args ...any) Outcome {
	return Fail(Wrapf(err, format, args...))
}

// -----------------------------------------------------------------------------
// Phases
// -----------------------------------------------------------------------------

// Begin starts the root phase.
// It returns ctx and the logger stored in it (or the default logger if ctx has none).
func Begin(ctx context.Context) (context.Context, logr.Logger) {
	l := log.FromContext(ctx)
	return ctx, l
}

// BeginPhase starts a named phase.
// It returns ctx updated with the phase logger, and the same logger value.
//
// phaseName and keysAndValues are validated and this function panics on
// invalid values (developer error).
func BeginPhase(ctx context.Context, phaseName string, keysAndValues ...any) (context.Context, logr.Logger) {
	mustBeValidPhaseName(phaseName)
	if len(keysAndValues)%2 != 0 {
		panic(fmt.Sprintf("flow.BeginPhase: odd number of keysAndValues for phase %q", phaseName))
	}
	l := log.FromContext(ctx).WithName(phaseName)
	if len(keysAndValues) > 0 {
		l = l.WithValues(keysAndValues...)
	}
	ctx = log.IntoContext(ctx, l)
	return ctx, l
}

var phaseNameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*$`)

// mustBeValidPhaseName panics unless name is a non-empty '/'-separated path
// of ASCII letters, digits and '._-'.
func mustBeValidPhaseName(name string) {
	if !phaseNameRe.MatchString(name) {
		panic(fmt.Sprintf("flow.BeginPhase: invalid phaseName %q", name))
	}
}
